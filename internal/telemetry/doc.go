// Package telemetry 安装 llmbridge 的 OpenTelemetry TracerProvider 与
// MeterProvider，导出 providers.Client 的 span 与请求时长直方图。
// 禁用时不连接任何采集器。
package telemetry
