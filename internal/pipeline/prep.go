package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"cloud.google.com/go/bigquery"
	"github.com/rs/zerolog"

	"github.com/all-of-us/surveyprep/internal/blobstore"
	"github.com/all-of-us/surveyprep/internal/bqload"
	"github.com/all-of-us/surveyprep/internal/hierarchy"
	"github.com/all-of-us/surveyprep/internal/redcap"
)

// StaticSurveysPrefix holds prep files that are published unchanged with every run.
const StaticSurveysPrefix = "redcap/static_surveys/"

// PrepSurvey pairs a REDCap export name with the prefix of its prep files.
type PrepSurvey struct {
	Export string
	Output string
}

// PrepSurveys are processed in this order.
var PrepSurveys = []PrepSurvey{
	{Export: "ENGLISHBasics_DataDictionary", Output: "prep_ppi_basics"},
	{Export: "ENGLISHHealthCareAccessUtiliza_DataDictionary", Output: "prep_ppi_health_care_access"},
	{Export: "ENGLISHLifestyle_DataDictionary", Output: "prep_ppi_lifestyle"},
	{Export: "ENGLISHOverallHealth_DataDictionary", Output: "prep_ppi_overall_health"},
	{Export: "ENGLISHPersonalMedicalHistory_DataDictionary", Output: "prep_ppi_personal_medical_history"},
}

// PrepRunner writes the controlled, registered and all files of every survey
// and publishes them under redcap/<date>/.
type PrepRunner struct {
	Store    blobstore.Store
	Resolver hierarchy.TopicResolver
	// Loader is only used when the request asks for a load.
	Loader  bqload.Loader
	WorkDir string
	Log     zerolog.Logger
	// Surveys defaults to PrepSurveys.
	Surveys []PrepSurvey
}

type prepFile struct {
	name   string
	path   string
	schema bigquery.Schema
	rows   int
}

func (r *PrepRunner) surveys() []PrepSurvey {
	if r.Surveys != nil {
		return r.Surveys
	}
	return PrepSurveys
}

func (r *PrepRunner) Run(ctx context.Context, req Request) ([]FileSummary, error) {
	surveys := r.surveys()
	exports := make([]string, 0, len(surveys))
	for _, s := range surveys {
		exports = append(exports, s.Export)
	}
	if err := requireExports(ctx, r.Store, exports, req.Date); err != nil {
		return nil, err
	}
	if req.Load && r.Loader == nil {
		return nil, fmt.Errorf("load requested without a loader")
	}

	if err := resetDir(r.WorkDir); err != nil {
		return nil, err
	}
	defer os.RemoveAll(r.WorkDir)

	var files []prepFile
	for _, s := range surveys {
		written, err := r.prepSurvey(ctx, s, req.Date)
		if err != nil {
			return nil, fmt.Errorf("survey %s: %w", s.Export, err)
		}
		files = append(files, written...)
	}

	dest := "redcap/" + req.Date + "/"
	summaries := make([]FileSummary, 0, len(files))
	for _, f := range files {
		key := dest + f.name
		if err := putFile(ctx, r.Store, key, f.path); err != nil {
			return nil, err
		}
		r.Log.Info().Str("key", key).Int("rows", f.rows).Msg("uploaded prep file")
		summaries = append(summaries, FileSummary{Name: f.name, Key: key, Rows: f.rows})
	}

	if err := r.copyStatic(ctx, dest); err != nil {
		return nil, err
	}

	if req.Load {
		for i, f := range files {
			loaded, err := r.load(ctx, req.Dataset, f)
			if err != nil {
				return nil, err
			}
			summaries[i].TableRows = loaded
		}
	}
	return summaries, nil
}

func (r *PrepRunner) prepSurvey(ctx context.Context, s PrepSurvey, date string) ([]prepFile, error) {
	key := exportKey(s.Export, date)
	data, err := r.Store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	rows, err := redcap.ReadDictionary(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", key, err)
	}

	controlled, err := createOutput(r.WorkDir, s.Output+"_controlled.csv", false)
	if err != nil {
		return nil, err
	}
	defer controlled.file.Close()
	registered, err := createOutput(r.WorkDir, s.Output+"_registered.csv", false)
	if err != nil {
		return nil, err
	}
	defer registered.file.Close()
	all, err := createOutput(r.WorkDir, s.Output+"_all.csv", true)
	if err != nil {
		return nil, err
	}
	defer all.file.Close()

	sinks := hierarchy.Sinks{All: all.sink, Controlled: controlled.sink, Registered: registered.sink}
	if err := hierarchy.Flatten(ctx, s.Export, rows, r.Resolver, sinks, r.Log); err != nil {
		return nil, err
	}

	var written []prepFile
	for _, out := range []*output{controlled, registered, all} {
		if err := out.close(); err != nil {
			return nil, err
		}
		written = append(written, out.prepFile())
	}
	r.Log.Debug().Str("survey", s.Export).Int("dictionary_rows", len(rows)).Msg("flattened survey")
	return written, nil
}

// copyStatic publishes every object directly under StaticSurveysPrefix into dest.
func (r *PrepRunner) copyStatic(ctx context.Context, dest string) error {
	keys, err := r.Store.List(ctx, StaticSurveysPrefix)
	if err != nil {
		return fmt.Errorf("list %s: %w", StaticSurveysPrefix, err)
	}
	for _, key := range keys {
		dst := dest + blobstore.Base(key)
		if err := r.Store.Copy(ctx, key, dst); err != nil {
			return fmt.Errorf("copy %s: %w", key, err)
		}
		r.Log.Info().Str("from", key).Str("key", dst).Msg("copied static survey")
	}
	return nil
}

func (r *PrepRunner) load(ctx context.Context, dataset string, f prepFile) (uint64, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", f.name, err)
	}
	defer fh.Close()

	job := bqload.Job{Dataset: dataset, Table: bqload.TableName(f.name), Schema: f.schema}
	n, err := r.Loader.Load(ctx, job, fh)
	if err != nil {
		return 0, err
	}
	r.Log.Info().Str("table", dataset+"."+job.Table).Uint64("table_rows", n).Msg("loaded prep file")
	return n, nil
}

// output is one prep file being written.
type output struct {
	name string
	path string
	all  bool
	file *os.File
	sink *hierarchy.CSVSink
}

func createOutput(dir, name string, all bool) (*output, error) {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	var sink *hierarchy.CSVSink
	if all {
		sink, err = hierarchy.NewAllCSV(f)
	} else {
		sink, err = hierarchy.NewAudienceCSV(f)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("write header %s: %w", name, err)
	}
	return &output{name: name, path: path, all: all, file: f, sink: sink}, nil
}

func (o *output) close() error {
	if err := o.sink.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", o.name, err)
	}
	if err := o.file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", o.name, err)
	}
	return nil
}

func (o *output) prepFile() prepFile {
	schema := bqload.AudienceSchema
	if o.all {
		schema = bqload.AllSchema(hierarchy.AllColumns)
	}
	return prepFile{name: o.name, path: o.path, schema: schema, rows: o.sink.Rows()}
}

func putFile(ctx context.Context, store blobstore.Store, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if err := store.Put(ctx, key, f); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}
