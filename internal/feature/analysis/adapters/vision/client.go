// Package vision はGoogle Cloud Vision APIを使用したラベル検出クライアントを提供します。
package vision

import (
	"context"
	"fmt"

	gvision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"foodlog_backend/internal/feature/analysis/usecase"
)

const (
	// maxResults は1リクエストで取得するラベル数の上限です。
	maxResults = 10
	// minScore はヒントとして採用するラベルの最小スコアです。
	minScore = 0.6
)

// Annotator はVision APIのバッチアノテーション呼び出しです。テストで差し替えられます。
type Annotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)
}

// AnnotatorFunc は関数をAnnotatorとして扱うためのアダプターです。
type AnnotatorFunc func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)

// BatchAnnotateImages はf(ctx, req)を呼び出します。
func (f AnnotatorFunc) BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
	return f(ctx, req)
}

// VisionLabelHinter はGoogle Cloud Vision APIを使用して画像のラベルを検出します。
type VisionLabelHinter struct {
	annotator Annotator
	closer    func() error
}

// VisionLabelHinterがLabelHinterを実装していることをコンパイル時に検証します。
var _ usecase.LabelHinter = (*VisionLabelHinter)(nil)

// NewVisionLabelHinter はADCを使用してVisionLabelHinterの新しいインスタンスを生成します。
func NewVisionLabelHinter(ctx context.Context) (*VisionLabelHinter, error) {
	client, err := gvision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	annotate := AnnotatorFunc(func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
		return client.BatchAnnotateImages(ctx, req)
	})
	return &VisionLabelHinter{annotator: annotate, closer: client.Close}, nil
}

// NewVisionLabelHinterWith は任意のAnnotatorを使用するVisionLabelHinterを生成します。
func NewVisionLabelHinterWith(a Annotator) *VisionLabelHinter {
	return &VisionLabelHinter{annotator: a}
}

// Close はVision APIクライアントを解放します。
func (v *VisionLabelHinter) Close() error {
	if v.closer == nil {
		return nil
	}
	return v.closer()
}

// Labels は画像バイト列からラベルを検出し、スコアが閾値以上のものを返します。
func (v *VisionLabelHinter) Labels(ctx context.Context, image []byte) ([]string, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: image},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_LABEL_DETECTION, MaxResults: maxResults},
				},
			},
		},
	}

	resp, err := v.annotator.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vision API request failed: %w", err)
	}

	if len(resp.Responses) == 0 {
		return nil, nil
	}

	if resp.Responses[0].Error != nil {
		return nil, fmt.Errorf("vision API error: %s", resp.Responses[0].Error.Message)
	}

	labels := make([]string, 0, len(resp.Responses[0].LabelAnnotations))
	for _, l := range resp.Responses[0].LabelAnnotations {
		if l.Score < minScore {
			continue
		}
		labels = append(labels, l.Description)
	}

	return labels, nil
}
