package rpc

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/spf13/cast"

	"github.com/vulntor/netspectre/pkg/baseline"
	"github.com/vulntor/netspectre/pkg/diff"
	"github.com/vulntor/netspectre/pkg/inventory"
	"github.com/vulntor/netspectre/pkg/profile"
	"github.com/vulntor/netspectre/pkg/report"
	"github.com/vulntor/netspectre/pkg/topology"
	"github.com/vulntor/netspectre/pkg/version"
)

func (s *Server) routes() map[string]handlerFunc {
	return map[string]handlerFunc{
		"profiles.list":     s.profilesList,
		"profiles.get":      s.profilesGet,
		"profiles.create":   s.profilesCreate,
		"profiles.update":   s.profilesUpdate,
		"profiles.delete":   s.profilesDelete,
		"profiles.validate": s.profilesValidate,

		"baseline.createSnapshot": s.baselineCreate,
		"baseline.listSnapshots":  s.baselineList,
		"baseline.getSnapshot":    s.baselineGet,
		"baseline.delete":         s.baselineDelete,
		"baseline.diff":           s.baselineDiff,

		"fingerprint.analyze": s.fingerprintAnalyze,
		"topology.build":      s.topologyBuild,
		"diff.compute":        s.diffCompute,
		"engine.version":      s.engineVersion,

		"report.summary":  s.reportSummary,
		"report.sanitize": s.reportSanitize,
		"report.export":   s.reportExport,
	}
}

// params is the named-parameter object of a request.
type params map[string]json.RawMessage

func parseParams(raw json.RawMessage) (params, *Error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return params{}, nil
	}
	var p params
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, newError(CodeInvalidParams, "Params must be an object: %v", err)
	}
	return p, nil
}

// decode unmarshals the required parameter key into v.
func (p params) decode(key string, v any) error {
	raw, ok := p[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return newError(CodeInvalidParams, "Missing required parameter: %s", key)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return newError(CodeInvalidParams, "Invalid parameter '%s': %v", key, err)
	}
	return nil
}

// str returns the required string parameter key.
func (p params) str(key string) (string, error) {
	var v string
	if err := p.decode(key, &v); err != nil {
		return "", err
	}
	return v, nil
}

// optional returns the loosely typed value of key, or nil.
func (p params) optional(key string) any {
	raw, ok := p[key]
	if !ok {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

// has reports whether key is present with a non-null value.
func (p params) has(key string) bool {
	raw, ok := p[key]
	return ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// optBool returns key coerced to a bool, or false when absent.
func (p params) optBool(key string) (bool, error) {
	v := p.optional(key)
	if v == nil {
		return false, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, newError(CodeInvalidParams, "Invalid parameter '%s': %v", key, err)
	}
	return b, nil
}

// optString returns key coerced to a string, or "" when absent.
func (p params) optString(key string) (string, error) {
	v := p.optional(key)
	if v == nil {
		return "", nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", newError(CodeInvalidParams, "Invalid parameter '%s': %v", key, err)
	}
	return s, nil
}

// optInt returns key coerced to an int, or def when absent.
func (p params) optInt(key string, def int) (int, error) {
	v := p.optional(key)
	if v == nil {
		return def, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, newError(CodeInvalidParams, "Invalid parameter '%s': %v", key, err)
	}
	return n, nil
}

func (s *Server) profilesList(ctx context.Context, _ params) (any, error) {
	list, err := s.profiles.List(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"profiles": list}, nil
}

func (s *Server) profilesGet(ctx context.Context, p params) (any, error) {
	name, err := p.str("name")
	if err != nil {
		return nil, err
	}
	prof, err := s.profiles.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return map[string]any{"profile": prof}, nil
}

func (s *Server) profilesCreate(ctx context.Context, p params) (any, error) {
	var prof profile.Profile
	if err := p.decode("profile", &prof); err != nil {
		return nil, err
	}
	created, err := s.profiles.Create(ctx, prof)
	if err != nil {
		return nil, err
	}
	return map[string]any{"profile": created}, nil
}

func (s *Server) profilesUpdate(ctx context.Context, p params) (any, error) {
	name, err := p.str("name")
	if err != nil {
		return nil, err
	}
	var prof profile.Profile
	if err := p.decode("profile", &prof); err != nil {
		return nil, err
	}
	updated, err := s.profiles.Update(ctx, name, prof)
	if err != nil {
		return nil, err
	}
	return map[string]any{"profile": updated}, nil
}

func (s *Server) profilesDelete(ctx context.Context, p params) (any, error) {
	name, err := p.str("name")
	if err != nil {
		return nil, err
	}
	if err := s.profiles.Delete(ctx, name); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": true}, nil
}

func (s *Server) profilesValidate(_ context.Context, p params) (any, error) {
	var prof profile.Profile
	if err := p.decode("profile", &prof); err != nil {
		return nil, err
	}
	errs := s.profiles.Validate(prof)
	if errs == nil {
		errs = []string{}
	}
	return map[string]any{"valid": len(errs) == 0, "errors": errs}, nil
}

func (s *Server) baselineCreate(ctx context.Context, p params) (any, error) {
	var hosts []inventory.Host
	if err := p.decode("hosts", &hosts); err != nil {
		return nil, err
	}
	label, err := p.optString("label")
	if err != nil {
		return nil, err
	}
	return s.baselines.CreateSnapshot(ctx, hosts, label)
}

func (s *Server) baselineList(ctx context.Context, p params) (any, error) {
	limit, err := p.optInt("limit", 0)
	if err != nil {
		return nil, err
	}
	list, err := s.baselines.List(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return map[string]any{"baselines": list}, nil
}

func (s *Server) baselineGet(ctx context.Context, p params) (any, error) {
	id, err := p.str("id")
	if err != nil {
		return nil, err
	}
	b, err := s.baselines.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return map[string]any{"baseline": b}, nil
}

func (s *Server) baselineDelete(ctx context.Context, p params) (any, error) {
	id, err := p.str("id")
	if err != nil {
		return nil, err
	}
	if err := s.baselines.Delete(ctx, id); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": true}, nil
}

func (s *Server) baselineDiff(ctx context.Context, p params) (any, error) {
	id, err := p.str("baselineId")
	if err != nil {
		return nil, err
	}
	var current []inventory.Host
	if err := p.decode("currentHosts", &current); err != nil {
		return nil, err
	}
	return s.baselines.Diff(ctx, id, current)
}

func (s *Server) fingerprintAnalyze(_ context.Context, p params) (any, error) {
	var host inventory.Host
	if err := p.decode("host", &host); err != nil {
		return nil, err
	}
	var ports []inventory.DeepScanPort
	if err := p.decode("ports", &ports); err != nil {
		return nil, err
	}
	return map[string]any{"fingerprints": s.analyzer.Analyze(host, ports)}, nil
}

func (s *Server) topologyBuild(_ context.Context, p params) (any, error) {
	var hosts []inventory.Host
	if err := p.decode("hosts", &hosts); err != nil {
		return nil, err
	}
	return topology.Build(hosts), nil
}

func (s *Server) diffCompute(_ context.Context, p params) (any, error) {
	var before, after []inventory.Host
	if err := p.decode("baseline", &before); err != nil {
		return nil, err
	}
	if err := p.decode("current", &after); err != nil {
		return nil, err
	}
	return diff.Compute(before, after), nil
}

// reportChanges resolves the optional baseline comparison of a report
// request: an inline diff under "baseline" or a stored snapshot id under
// "baselineId".
func (s *Server) reportChanges(ctx context.Context, p params, records []report.HostRecord) (*diff.Result, error) {
	switch {
	case p.has("baseline"):
		var changes diff.Result
		if err := p.decode("baseline", &changes); err != nil {
			return nil, err
		}
		return &changes, nil
	case p.has("baselineId"):
		id, err := p.str("baselineId")
		if err != nil {
			return nil, err
		}
		changes, err := s.baselines.Diff(ctx, id, report.Hosts(records))
		if err != nil {
			return nil, err
		}
		return &changes, nil
	default:
		return nil, nil
	}
}

func (s *Server) reportSummary(ctx context.Context, p params) (any, error) {
	var records []report.HostRecord
	if err := p.decode("hosts", &records); err != nil {
		return nil, err
	}
	changes, err := s.reportChanges(ctx, p, records)
	if err != nil {
		return nil, err
	}
	return map[string]any{"summary": report.GenerateSummary(records, changes)}, nil
}

func (s *Server) reportSanitize(_ context.Context, p params) (any, error) {
	var records []report.HostRecord
	if err := p.decode("hosts", &records); err != nil {
		return nil, err
	}
	return map[string]any{"hosts": report.SanitizeRecords(records)}, nil
}

func (s *Server) reportExport(ctx context.Context, p params) (any, error) {
	var records []report.HostRecord
	if err := p.decode("hosts", &records); err != nil {
		return nil, err
	}
	name, err := p.optString("format")
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = string(report.FormatJSON)
	}
	format, err := report.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	withSummary, err := p.optBool("summary")
	if err != nil {
		return nil, err
	}
	sanitize, err := p.optBool("sanitize")
	if err != nil {
		return nil, err
	}

	var summary *report.Summary
	if withSummary {
		changes, err := s.reportChanges(ctx, p, records)
		if err != nil {
			return nil, err
		}
		sum := report.GenerateSummary(records, changes)
		summary = &sum
	}
	if sanitize {
		records = report.SanitizeRecords(records)
	}

	var buf bytes.Buffer
	if err := report.Export(&buf, format, records, summary); err != nil {
		return nil, err
	}
	return map[string]any{"format": format, "content": buf.String()}, nil
}

func (s *Server) engineVersion(_ context.Context, _ params) (any, error) {
	return map[string]any{
		"engine":         version.Get(),
		"schema_version": baseline.SchemaVersion,
		"methods":        s.Methods(),
	}, nil
}
