/*
# 概述

包 ollama 适配本地 Ollama 服务的 /api/chat、/api/embeddings 与 /api/tags。

# 与 OpenAI 的差异

  - 用户消息只有纯文本 content，多个文本片段以换行拼接；图片一律以
    base64 放入 images 字段，URL 来源会先被下载或从本地读取。
  - 工具调用没有 id，返回时按顺序生成 "call_0"、"call_1"……
  - 请求未携带工具时，工具结果消息与发起工具调用的助手消息会被过滤，
    并记录一条 Debug 日志。
  - 没有 tool_choice，GenerateWithTool 只能把目标工具作为唯一候选。
  - /api/embeddings 每次只接受一个 prompt，EmbedAll 顺序逐条调用，
    任一失败即中止整批；该端点不返回 token 计数。

# 结束原因映射

done_reason 为 stop 时，若存在工具调用映射为 TOOL_EXECUTION，否则为 STOP；
length→LENGTH；load/unload→STOP；done=true 且 done_reason 为空→STOP；
其余取值视为契约错误。
*/
package ollama
