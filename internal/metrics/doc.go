// 版权所有 2024 llmbridge Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的指标采集，覆盖上游请求、
Token 用量与向量检索三类维度。

# 概述

Collector 通过 promauto.With 注册到调用方给定的 Registerer，
默认是全局 Registry，cmd/llmbridge 用 promhttp 暴露 /metrics。
测试传入独立的 prometheus.NewRegistry()，互不干扰。

# 主要能力

  - 上游请求：请求总数（按 2xx/4xx/5xx/no_response 归类）、耗时，
    失败请求按 types.ErrorCode 计数。按 provider/operation 分组，
    provider 包括 openai、ollama、chroma、weaviate。
  - Token 用量：input/output 分别计数，未知计数跳过。
  - 向量检索：每次 FindRelevant 返回的匹配数分布。
*/
package metrics
