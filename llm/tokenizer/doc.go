// Package tokenizer 提供 Token 计数：OpenAI 模型使用 tiktoken 精确计数，
// 其他模型（如 Ollama 本地模型）使用区分 CJK 与 ASCII 的字符估算器。
// 消息计数按每条消息 3 个框架 token、回复引导 3 个 token 计算。
package tokenizer
