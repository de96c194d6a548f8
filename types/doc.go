// Copyright (c) llmbridge Authors.
// Licensed under the MIT License.

/*
Package types 提供 llmbridge 的统一领域模型。

# 概述

types 是最底层的公共包，不依赖任何内部包。所有 Provider 适配器
（OpenAI、Ollama）与向量存储适配器（Chroma、Weaviate）都只在边界上
与这里的类型互相转换，调用方因此可以用同一套模型访问不同的后端。

# 核心类型

  - ChatMessage          — 封闭的消息和类型：SystemMessage、UserMessage、
    AiMessage、ToolExecutionResultMessage
  - Content              — 封闭的内容和类型：TextContent、ImageContent
  - Image                — 图像来源（URL 或 Base64）及生成结果
  - ToolSpecification    — 工具定义（name + description + JSONSchema）
  - ToolExecutionRequest — 模型发起的工具调用（id、name、arguments）
  - TokenUsage           — 输入/输出/总计 Token，任意一项都可能未知
  - FinishReason         — STOP / LENGTH / TOOL_EXECUTION / CONTENT_FILTER
  - Embedding / TextSegment / EmbeddingMatch — 向量与检索结果
  - Moderation           — 审核结论
  - Response[T]          — 结果 + 用量 + 结束原因
  - Error / ErrorCode    — 结构化错误体系

# 错误分类

  - 契约违规（INVALID_REQUEST）：调用方参数错误，在网络调用前失败
  - Provider 错误：非 2xx 响应，带状态码与响应体
  - 传输错误：原样透传
  - 空响应（EMPTY_RESPONSE）：传输成功但没有可用结果
*/
package types
