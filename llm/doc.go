// 版权所有 2024 llmbridge Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 llm 定义与服务商无关的模型接口。

# 核心接口

  - ChatModel — 生成一条助手消息，可附带工具定义或强制调用某个工具
  - EmbeddingModel — 文本向量化，EmbedAll 按输入顺序返回
  - ImageModel — 由提示词生成图片
  - ModerationModel — 按服务商的内容策略审核文本

# 子包

  - providers — 共享 HTTP 基础层（认证、超时、日志、追踪、限流、错误映射）
  - providers/openai — OpenAI 对话、向量、图片与审核
  - providers/ollama — Ollama 对话与向量
  - tokenizer — 离线 token 计数（tiktoken 与字符估算）
*/
package llm
