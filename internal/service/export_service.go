package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/recruiting-crm-api/internal/dto"
	"github.com/noah-isme/recruiting-crm-api/internal/models"
	"github.com/noah-isme/recruiting-crm-api/internal/repository"
	appErrors "github.com/noah-isme/recruiting-crm-api/pkg/errors"
	"github.com/noah-isme/recruiting-crm-api/pkg/export"
)

type pipelineLister interface {
	List(ctx context.Context, tenantID string, query dto.PipelineQuery) (*dto.PipelineListResponse, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered export ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
}

var pipelineExportHeaders = []string{
	"Candidate", "Email", "Position", "Stage", "Status", "Rating", "Applied At", "Interview Date", "Hired At", "Rejected At",
}

// ExportService renders filtered pipeline listings as CSV or PDF.
type ExportService struct {
	pipeline pipelineLister
	csv      csvRenderer
	pdf      pdfRenderer
	maxRows  int
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to pkg/export defaults.
func NewExportService(pipeline pipelineLister, maxRows int, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRows <= 0 {
		maxRows = 1000
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{pipeline: pipeline, csv: csv, pdf: pdf, maxRows: maxRows, logger: logger, now: time.Now}
}

// ExportPipeline renders up to maxRows entries matching the query.
func (s *ExportService) ExportPipeline(ctx context.Context, tenantID string, query dto.PipelineQuery, format export.Format) (*ExportFile, error) {
	entries, err := s.collect(ctx, tenantID, query)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: pipelineExportHeaders, Rows: make([]map[string]string, 0, len(entries))}
	for _, entry := range entries {
		dataset.Rows = append(dataset.Rows, pipelineExportRow(entry))
	}

	var body []byte
	switch format {
	case export.FormatPDF:
		body, err = s.pdf.Render(dataset, "Recruiting Pipeline")
	case export.FormatCSV:
		body, err = s.csv.Render(dataset)
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("pipeline export rendered",
		zap.String("tenant_id", tenantID), zap.String("format", string(format)), zap.Int("rows", len(entries)))
	return &ExportFile{
		Filename:    fmt.Sprintf("pipeline-%s.%s", s.now().UTC().Format("20060102-150405"), format),
		ContentType: format.ContentType(),
		Body:        body,
		Rows:        len(entries),
	}, nil
}

// collect pages through the listing since a single page is capped below maxRows.
func (s *ExportService) collect(ctx context.Context, tenantID string, query dto.PipelineQuery) ([]models.PipelineEntryDetail, error) {
	entries := make([]models.PipelineEntryDetail, 0)
	offset := 0
	for len(entries) < s.maxRows {
		pageSize := repository.MaxPipelineLimit
		if remaining := s.maxRows - len(entries); remaining < pageSize {
			pageSize = remaining
		}
		query.Limit = strconv.Itoa(pageSize)
		query.Offset = strconv.Itoa(offset)
		page, err := s.pipeline.List(ctx, tenantID, query)
		if err != nil {
			return nil, err
		}
		entries = append(entries, page.Entries...)
		offset += len(page.Entries)
		if len(page.Entries) < pageSize || offset >= page.Total {
			break
		}
	}
	return entries, nil
}

func pipelineExportRow(entry models.PipelineEntryDetail) map[string]string {
	rating := ""
	if entry.Rating != nil {
		rating = strconv.Itoa(*entry.Rating)
	}
	return map[string]string{
		"Candidate":      entry.CandidateName(),
		"Email":          stringValue(entry.CandidateEmail),
		"Position":       entry.PositionTitle,
		"Stage":          stringValue(entry.StageName),
		"Status":         string(entry.Status),
		"Rating":         rating,
		"Applied At":     entry.AppliedAt.UTC().Format(time.RFC3339),
		"Interview Date": formatOptionalTime(entry.InterviewDate),
		"Hired At":       formatOptionalTime(entry.HiredAt),
		"Rejected At":    formatOptionalTime(entry.RejectedAt),
	}
}

func formatOptionalTime(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}
