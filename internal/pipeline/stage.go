package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/all-of-us/surveyprep/internal/blobstore"
	"github.com/all-of-us/surveyprep/internal/bqload"
	"github.com/all-of-us/surveyprep/internal/redcap"
	"github.com/all-of-us/surveyprep/internal/tanagra"
)

// StagedTable receives every staged survey file.
const StagedTable = "prep_redcap_survey_file"

// CopeStagedKey is the COPE staged file, maintained by hand.
const CopeStagedKey = "redcap/tanagra_cope_staged.csv"

// StageSurveys are the exports staged for Tanagra, in load order.
var StageSurveys = []string{
	"ENGLISHBasics_DataDictionary",
	"ENGLISHLifestyle_DataDictionary",
	"ENGLISHOverallHealth_DataDictionary",
	"ENGLISHHealthCareAccessUtiliza_DataDictionary",
	"ENGLISHNewYearMinuteSurveyOnCO_DataDictionary",
	"ENGLISHSocialDeterminantsOfHea_DataDictionary",
	"ENGLISHPersonalAndFamilyHealth_DataDictionary",
}

// StageRunner writes the Tanagra staged files to <dataset>/cdr_csv_files/ and
// loads them into StagedTable.
type StageRunner struct {
	Store   blobstore.Store
	Loader  bqload.Loader
	WorkDir string
	Log     zerolog.Logger
	// Surveys defaults to StageSurveys.
	Surveys []string
}

func (r *StageRunner) Run(ctx context.Context, req Request) ([]FileSummary, error) {
	surveys := r.Surveys
	if surveys == nil {
		surveys = StageSurveys
	}
	if r.Loader == nil {
		return nil, fmt.Errorf("stage run without a loader")
	}
	if err := requireExports(ctx, r.Store, surveys, req.Date); err != nil {
		return nil, err
	}

	if err := resetDir(r.WorkDir); err != nil {
		return nil, err
	}
	defer os.RemoveAll(r.WorkDir)

	dest := req.Dataset + "/cdr_csv_files/"
	var summaries []FileSummary
	for _, export := range surveys {
		name := tanagra.FileName(export)
		path := filepath.Join(r.WorkDir, name)
		rows, err := r.stageSurvey(ctx, export, req.Date, path)
		if err != nil {
			return nil, fmt.Errorf("survey %s: %w", export, err)
		}
		key := dest + name
		if err := putFile(ctx, r.Store, key, path); err != nil {
			return nil, err
		}
		r.Log.Info().Str("key", key).Int("rows", rows).Msg("uploaded staged file")
		summaries = append(summaries, FileSummary{Name: name, Key: key, Rows: rows})
	}

	copeKey := dest + blobstore.Base(CopeStagedKey)
	if err := r.Store.Copy(ctx, CopeStagedKey, copeKey); err != nil {
		return nil, fmt.Errorf("copy %s: %w", CopeStagedKey, err)
	}
	summaries = append(summaries, FileSummary{Name: blobstore.Base(CopeStagedKey), Key: copeKey})

	var tableRows uint64
	for i, s := range summaries {
		body, err := r.open(ctx, s)
		if err != nil {
			return nil, err
		}
		job := bqload.Job{
			Dataset:   req.Dataset,
			Table:     StagedTable,
			Schema:    bqload.StagedSurveySchema,
			Delimiter: string(tanagra.Delimiter),
			Append:    i > 0,
		}
		tableRows, err = r.Loader.Load(ctx, job, body)
		body.Close()
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", s.Name, err)
		}
	}
	if n := len(summaries); n > 0 {
		summaries[n-1].TableRows = tableRows
	}
	r.Log.Info().Str("table", req.Dataset+"."+StagedTable).Uint64("table_rows", tableRows).Msg("loaded staged files")
	return summaries, nil
}

func (r *StageRunner) stageSurvey(ctx context.Context, export, date, path string) (int, error) {
	key := exportKey(export, date)
	data, err := r.Store.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", key, err)
	}
	fields, err := redcap.ReadDictionary(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	rows := tanagra.Stage(export, fields)

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := tanagra.Write(f, rows); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	return len(rows), f.Close()
}

// open returns the local copy of a staged file, or the bucket object when
// there is none.
func (r *StageRunner) open(ctx context.Context, s FileSummary) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(r.WorkDir, s.Name))
	if err == nil {
		return f, nil
	}
	data, err := r.Store.Get(ctx, s.Key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Key, err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
