// =============================================================================
// llmbridge 命令行入口
// =============================================================================
// 使用方法:
//
//	llmbridge chat --prompt "Hello"                      # 对话
//	llmbridge embed "text a" "text b"                    # 向量化
//	llmbridge image --prompt "..." --out ./images        # 生成图片
//	llmbridge moderate "user input"                      # 内容审核
//	llmbridge store add --store chroma --doc "..."       # 写入向量库
//	llmbridge store query --store chroma --text "..."    # 相关性检索
//	llmbridge tokens "text"                              # 离线计数
//	llmbridge version                                    # 版本信息
//
// =============================================================================
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
)

// ExitCoder is implemented by errors that carry a process exit code.
type ExitCoder interface {
	ExitCode() int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := NewApp().Execute(ctx, os.Args[1:])
	stop()
	if err != nil {
		var ec ExitCoder
		if errors.As(err, &ec) {
			os.Exit(ec.ExitCode())
		}
		os.Exit(ExitValidation)
	}
}
