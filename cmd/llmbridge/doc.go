// Copyright (c) llmbridge Authors.
// Licensed under the MIT License.

/*
Package main 提供 llmbridge 命令行程序入口。

# 概述

cmd/llmbridge 基于 cobra 组织子命令，按配置（默认值 → YAML → LLMBRIDGE_*
环境变量）构建 OpenAI / Ollama 模型与 Chroma / Weaviate / 内存向量存储，
并输出文本或 JSON（--json）。

# 子命令

  - chat      — 单轮对话，--estimate 先离线估算 prompt token
  - embed     — 批量向量化，按输入顺序输出
  - image     — 图片生成（openai），--out 时以 PNG 写入目录
  - moderate  — 内容审核（openai），报告第一条被标记的文本
  - store     — add 写入文档，query 相关性检索（分数 0..1）
  - tokens    — 离线 token 计数
  - version   — 构建信息，Version/BuildTime/GitCommit 由 ldflags 注入

# 运行时

每次执行初始化 zap 日志、OpenTelemetry（可选）与独立的 Prometheus
Registry；metrics.enabled 时在 metrics.addr 暴露 /metrics。

# 退出码

  - 0 成功
  - 1 参数或配置错误（契约违例）
  - 2 上游返回错误
  - 3 网络错误或超时
*/
package main
