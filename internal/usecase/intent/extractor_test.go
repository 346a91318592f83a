package intent

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lookbook/internal/domain"
	domintent "github.com/kailas-cloud/lookbook/internal/domain/intent"
	dommedia "github.com/kailas-cloud/lookbook/internal/domain/media"
	"github.com/kailas-cloud/lookbook/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockDelivery struct {
	reply  string
	err    error
	calls  int
	prompt string
	images []dommedia.Image
}

func (m *mockDelivery) Generate(_ context.Context, prompt string, images []dommedia.Image) (string, error) {
	m.calls++
	m.prompt = prompt
	m.images = images
	return m.reply, m.err
}

func oneImage() []dommedia.Image {
	return []dommedia.Image{dommedia.NewBufferedImage(dommedia.Hosted{ID: "x", URL: "http://m/x"}, []byte("x"))}
}

// --- Tests ---

func TestExtract_Text(t *testing.T) {
	del := &mockDelivery{reply: `Sure! Here you go: {"category":"clothing","searchTerms":["red dress","gold heels"]} Thanks!`}
	ex := NewExtractor(del, zap.NewNop())

	got, err := ex.Extract(context.Background(), "  party outfit ", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Intent.Category() != domintent.Clothing {
		t.Errorf("category = %q", got.Intent.Category())
	}
	if len(got.Intent.SearchTerms()) != 2 {
		t.Errorf("terms = %v", got.Intent.SearchTerms())
	}
	if got.RawText != del.reply {
		t.Error("raw text must be the model reply")
	}
	if !strings.HasSuffix(del.prompt, "User query: party outfit") {
		t.Errorf("prompt must carry the trimmed query")
	}
}

func TestExtract_BlankTextRejectedWithoutCall(t *testing.T) {
	del := &mockDelivery{}
	ex := NewExtractor(del, zap.NewNop())

	_, err := ex.Extract(context.Background(), "   ", nil)
	if !errors.Is(err, domain.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if del.calls != 0 {
		t.Error("model must not be called for blank input")
	}
}

func TestExtract_ImageWithoutQuery(t *testing.T) {
	del := &mockDelivery{reply: `{"category":"decor","itemInImage":"oak table","searchTerms":["brass candle holder"]}`}
	ex := NewExtractor(del, zap.NewNop())

	got, err := ex.Extract(context.Background(), "", oneImage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Intent.ItemInImage() != "oak table" {
		t.Errorf("itemInImage = %q", got.Intent.ItemInImage())
	}
	if len(del.images) != 1 {
		t.Error("images must reach the delivery")
	}
	if !strings.Contains(del.prompt, "itemInImage") {
		t.Error("image prompt expected")
	}
}

func TestExtract_TooManyImages(t *testing.T) {
	del := &mockDelivery{}
	ex := NewExtractor(del, zap.NewNop())

	imgs := append(oneImage(), oneImage()...)
	imgs = append(imgs, oneImage()...)
	if _, err := ex.Extract(context.Background(), "", imgs); !errors.Is(err, domain.ErrInvalidImages) {
		t.Fatalf("expected ErrInvalidImages, got %v", err)
	}
	if del.calls != 0 {
		t.Error("model must not be called")
	}
}

func TestExtract_MalformedKeepsRawText(t *testing.T) {
	del := &mockDelivery{reply: "I think a red dress would be lovely."}
	ex := NewExtractor(del, zap.NewNop())
	before := testutil.ToFloat64(metrics.IntentOutcomeTotal.WithLabelValues("malformed"))

	got, err := ex.Extract(context.Background(), "party", nil)
	if !errors.Is(err, domain.ErrMalformedIntent) {
		t.Fatalf("expected ErrMalformedIntent, got %v", err)
	}
	if got.RawText != del.reply {
		t.Errorf("raw text = %q", got.RawText)
	}
	if after := testutil.ToFloat64(metrics.IntentOutcomeTotal.WithLabelValues("malformed")); after != before+1 {
		t.Errorf("malformed counter = %f, want %f", after, before+1)
	}
}

func TestExtract_UnsupportedCategory(t *testing.T) {
	del := &mockDelivery{reply: `{"category":"furniture","searchTerms":["velvet sofa"]}`}
	ex := NewExtractor(del, zap.NewNop())

	got, err := ex.Extract(context.Background(), "sofa", nil)
	if !errors.Is(err, domain.ErrUnsupportedCategory) {
		t.Fatalf("expected ErrUnsupportedCategory, got %v", err)
	}
	if got.RawText == "" {
		t.Error("raw text must be preserved")
	}
}

func TestExtract_DeliveryError(t *testing.T) {
	del := &mockDelivery{err: domain.ErrMediaDeliveryFailed}
	ex := NewExtractor(del, zap.NewNop())

	got, err := ex.Extract(context.Background(), "", oneImage())
	if !errors.Is(err, domain.ErrMediaDeliveryFailed) {
		t.Fatalf("expected ErrMediaDeliveryFailed, got %v", err)
	}
	if got.RawText != "" {
		t.Error("no reply was obtained")
	}
}

func TestExtract_EmptyIntent(t *testing.T) {
	del := &mockDelivery{reply: `{"category":"clothing","searchTerms":[]}`}
	ex := NewExtractor(del, zap.NewNop())

	got, err := ex.Extract(context.Background(), "hello", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Intent.Empty() {
		t.Error("expected empty intent")
	}
}
