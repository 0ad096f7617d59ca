package extract

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yungbote/docintel-backend/internal/modules/documents/annotate"
	"github.com/yungbote/docintel-backend/internal/modules/documents/docerr"
	"github.com/yungbote/docintel-backend/internal/platform/gcp"
)

// DocumentAISource extracts PDF text with a Document AI processor.
type DocumentAISource struct {
	Doc gcp.Document
}

func (DocumentAISource) Name() string { return "documentai" }

func (s DocumentAISource) Extract(ctx context.Context, f annotate.Format, data []byte) (string, error) {
	if f != annotate.FormatPDF {
		return "", fmt.Errorf("%w: documentai handles pdf only", docerr.ErrUnsupportedFormat)
	}
	res, err := s.Doc.ProcessBytes(ctx, "application/pdf", data)
	if err != nil {
		return "", classifyRPC(err)
	}
	if len(res.Pages) > 0 {
		return joinParagraphs(res.Pages), nil
	}
	return strings.TrimSpace(res.Text), nil
}

// classifyRPC reports transient service failures as upstream errors; anything else is
// a problem with the document itself.
func classifyRPC(err error) error {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Internal, codes.Unauthenticated, codes.PermissionDenied:
		return &docerr.UpstreamError{Op: "documentai", Err: err}
	}
	return err
}
