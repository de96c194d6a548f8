// Package config 提供 llmbridge 的配置加载。
//
// 配置按 默认值 → YAML 文件 → LLMBRIDGE_ 前缀环境变量 的顺序叠加，
// 结果交给 cmd/llmbridge 组装各 provider 客户端与向量存储。
// 模型与存储的 Options 结构本身从不读取环境变量。
package config
