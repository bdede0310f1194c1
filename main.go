package main

import (
	"github.com/joho/godotenv"

	"github.com/shouni/go-swipe-art-kit/cmd"
)

// main はアプリケーションの唯一のエントリーポイントなのだ！
// .env の読み込みだけ済ませて、コマンドライン解析はすべて cmd パッケージに委ねるのだよ。
func main() {
	_ = godotenv.Load()
	cmd.Execute()
}
