// Copyright 2026 llmbridge Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 openai 提供 OpenAI API 的完整适配：线协议 DTO、HTTP 客户端、
领域模型与线协议之间的纯函数转换，以及面向调用方的四个能力门面。

# 分层

  - wire.go：与 OpenAI JSON 完全一致的请求/响应结构（snake_case）
  - client.go：Client：ChatCompletion、Embeddings、ImageGeneration、
    Moderation、ListModels；在发出请求前校验前置条件（非空消息、
    禁止 stream、Embedding 输入 ≤2048、图像提示词 ≤4000 字符）
  - adapter.go：ToWireMessages / ToWireTools / FromWire 等无状态转换
  - options.go：各能力的 Options 默认值与 Builder
  - chat.go / embedding.go / image.go / moderation.go：能力门面

# 结束原因映射

stop→STOP，length→LENGTH，tool_calls/function_call→TOOL_EXECUTION，
content_filter→CONTENT_FILTER，空值表示未知；其余取值视为契约错误。

# 强制工具调用

GenerateWithTool 通过 tool_choice 强制模型调用指定工具。此时 OpenAI
返回的 finish_reason 可能是 stop 而非 tool_calls，映射保持与 API 文档一致，
调用方应以 AiMessage 中是否存在 ToolExecutionRequest 为准。
*/
package openai
