package domain

// GenerationRequest は1回の画像生成要求です。生成直前に構築され、永続化されません。
type GenerationRequest struct {
	Prompt         string
	NegativePrompt string
	AspectRatio    string
	Model          ModelDescriptor
}

// GenerationResult は生成された画像と、その由来を説明するメタデータです。
// 所有権は呼び出し元に移り、パイプラインは返却後に参照を保持しません。
type GenerationResult struct {
	Data      []byte
	MimeType  string
	Prompt    string // 常に非空であることが保証される
	Rationale string // どの経路で生成されたかの人間可読な説明
	Backend   string // 実際に画像を生成したバックエンド名
}
