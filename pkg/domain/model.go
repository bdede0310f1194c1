package domain

// InputShape はバックエンドが期待するリクエスト形状の種別です。
type InputShape string

const (
	// ShapeSimpleText は prompt のみを渡す最小形状です。
	ShapeSimpleText InputShape = "simpleText"
	// ShapeStructuredImagen は prompt / negative_prompt / aspect_ratio を渡す形状です。
	ShapeStructuredImagen InputShape = "structuredImagen"
	// ShapeNativeCloud は Gemini ネイティブ生成 API を直接使う形状です。
	ShapeNativeCloud InputShape = "nativeCloud"
	// ShapeFlagOnly は prompt に加えてフラグ指定のみを渡す形状です。
	ShapeFlagOnly InputShape = "flagOnly"
)

// ModelDescriptor は静的なモデルカタログの1エントリです。実行時は読み取り専用です。
type ModelDescriptor struct {
	Name    string
	Backend string // バックエンド識別子 ("gemini", "replicate" など)
	Version string // 非同期APIに渡すバージョン識別子
	Shape   InputShape
}

// DefaultCatalog は組み込みのモデルカタログです。
// 設定層で差し替え可能ですが、実行中に変更してはいけません。
func DefaultCatalog() []ModelDescriptor {
	return []ModelDescriptor{
		{
			Name:    "gemini-native-image",
			Backend: "gemini",
			Shape:   ShapeNativeCloud,
		},
		{
			Name:    "flux-schnell",
			Backend: "replicate",
			Version: "black-forest-labs/flux-schnell",
			Shape:   ShapeSimpleText,
		},
		{
			Name:    "imagen-structured",
			Backend: "replicate",
			Version: "google/imagen-4",
			Shape:   ShapeStructuredImagen,
		},
		{
			Name:    "sdxl-unrestricted",
			Backend: "replicate",
			Version: "stability-ai/sdxl",
			Shape:   ShapeFlagOnly,
		},
	}
}

// FindModel は名前でカタログを検索します。見つからない場合は false を返します。
func FindModel(catalog []ModelDescriptor, name string) (ModelDescriptor, bool) {
	for _, m := range catalog {
		if m.Name == name {
			return m, true
		}
	}
	return ModelDescriptor{}, false
}
