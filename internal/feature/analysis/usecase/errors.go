package usecase

import "errors"

var (
	// ErrImageRequired は画像が送られていない場合のエラーです。
	ErrImageRequired = errors.New("image is required")
	// ErrInvalidImage は画像データをデコードできない場合のエラーです。
	ErrInvalidImage = errors.New("image must be a base64 encoded image or data URL")
	// ErrImageTooLarge はデコード後の画像が上限を超えた場合のエラーです。
	ErrImageTooLarge = errors.New("image too large")
	// ErrModelFailure はビジョンモデル呼び出しが失敗した場合のエラーです。
	ErrModelFailure = errors.New("vision model request failed")
	// ErrEmptyResponse はモデルの応答が空だった場合のエラーです。
	ErrEmptyResponse = errors.New("vision model returned an empty response")
	// ErrInvalidAnalysis はモデルの応答が期待するJSON形式でない場合のエラーです。
	ErrInvalidAnalysis = errors.New("vision model returned an invalid analysis")
)
