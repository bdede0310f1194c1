// Package backend は画像生成バックエンドの共通契約を定義します。
// カスケード（pkg/cascade）はこの契約だけに依存し、個々のバックエンドの
// ワイヤ形式を知りません。
package backend

import (
	"context"
	"strings"

	"github.com/shouni/go-swipe-art-kit/pkg/domain"
)

// Backend は1つの具象画像生成経路（クラウドAPIまたはローカル合成）です。
type Backend interface {
	// Name はログとRationale生成に使う識別子を返します。
	Name() string
	// Generate はリクエストから画像を生成します。失敗は domain.PipelineError で分類されます。
	Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error)
}

// ValidateCredential は認証情報の存在とプレースホルダ値を検査します。
// "YOUR_..._HERE" のような明らかに無効な値は未設定と同一に扱い、
// ネットワーク呼び出し前に Configuration エラーで失敗させます。
func ValidateCredential(backendName, credName, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return domain.Errorf(domain.KindConfiguration, backendName, "%s is not configured", credName)
	}
	if IsPlaceholder(value) {
		return domain.Errorf(domain.KindConfiguration, backendName,
			"%s still holds a placeholder value", credName)
	}
	return nil
}

// IsPlaceholder はテンプレート由来のプレースホルダ値を検出します。
func IsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	return strings.Contains(upper, "YOUR_") && strings.Contains(upper, "_HERE")
}
