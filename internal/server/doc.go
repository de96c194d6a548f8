// 版权所有 2024 llmbridge Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 为命令行进程提供后台 Prometheus 指标端点。

Manager 封装 net/http.Server，支持非阻塞启动、幂等的优雅关闭与
异步错误传播；MetricsHandler 基于 promhttp 暴露 /metrics 与
/healthz。监听地址可为 ":0"，Addr 返回实际绑定的地址。
*/
package server
