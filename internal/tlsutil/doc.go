// Package tlsutil 提供集中式 TLS 与传输层配置，
// 为 Provider 客户端与向量存储客户端提供安全加固的 http.Transport（TLS 1.2+，仅 AEAD 密码套件），
// 并显式区分连接超时与读取超时。
package tlsutil
