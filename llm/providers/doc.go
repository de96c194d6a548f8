// Copyright 2026 llmbridge Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 providers 是所有 Provider 客户端与向量存储客户端共享的 HTTP 基础层。
openai、ollama 子包以及 rag 包中的 Chroma/Weaviate 存储都通过本包的
Client 发送请求，从而共享认证、超时、日志、追踪、限流与错误映射逻辑。

# 核心类型

  - ClientConfig — 基础配置（BaseURL、APIKey/BasicAuth、连接/读取超时、日志开关、限流、Codec）
  - Client — 线程安全的 HTTP 客户端，提供 Post/Get/Delete/Do
  - Codec — 显式的 JSON 编解码配置，构建一次后传入各客户端
  - ProviderError — 非 2xx 响应的统一错误，保留状态码与原始响应体，
    并包装经 MapHTTPError 分类后的 *types.Error
  - ImageLoader — 将图像来源（Base64、http/https、file）统一转为 Base64

# 核心函数

  - MapHTTPError — 将 HTTP 状态码映射为语义化的 types.Error（含 Retryable 标记）
  - ParseErrorBody — 解析 {"error":{...}}、{"error":"..."}、{"error":[...]} 三种错误体

# 可观测性

每次请求创建一个 OpenTelemetry span，并通过 RequestObserver 回调上报
状态码与耗时。请求日志会对 Authorization 头做脱敏；响应日志先完整读取
响应体再解码，不会破坏后续解析。
*/
package providers
