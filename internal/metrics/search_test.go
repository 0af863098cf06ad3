package metrics

import (
	"slices"
	"testing"
	"time"
)

func names(results []Metric) (list []string) {
	for _, metric := range results {
		list = append(list, metric.Name)
	}
	return
}

func TestRegistry_Search(t *testing.T) {
	reg, ts := setupRegistryWithData(t)
	open := time.Time{}

	tests := []struct {
		name      string
		metric    string
		namespace []string
		start     time.Time
		end       time.Time
		wantNames []string
	}{
		{
			name:      "single slice in namespace then name order",
			start:     ts["ts1"],
			end:       ts["ts1"],
			wantNames: []string{"backlog_depth", "elapsed_time", "backlog_depth"},
		},
		{
			name:      "name must match exactly",
			metric:    "backlog",
			start:     open,
			end:       open,
			wantNames: nil,
		},
		{
			name:      "one name across namespaces oldest first",
			metric:    "backlog_depth",
			start:     open,
			end:       open,
			wantNames: []string{"backlog_depth", "backlog_depth", "backlog_depth", "backlog_depth"},
		},
		{
			name:      "namespace prefix excludes siblings",
			metric:    "backlog_depth",
			namespace: nsHub,
			start:     open,
			end:       open,
			wantNames: []string{"backlog_depth", "backlog_depth", "backlog_depth"},
		},
		{
			name:      "last two slices",
			namespace: nsWorker,
			start:     ts["ts2"],
			end:       ts["ts3"],
			wantNames: []string{"messages_sent"},
		},
		{
			name:      "window past the data",
			start:     ts["ts3"].Add(time.Hour),
			end:       open,
			wantNames: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(reg.Search(tt.metric, tt.namespace, tt.start, tt.end))
			if !slices.Equal(got, tt.wantNames) {
				t.Fatalf("got %v, want %v", got, tt.wantNames)
			}
		})
	}

	total := len(reg.Search("", []string{"Distributor"}, open, open))
	if total != 8 {
		t.Fatalf("expected 8 samples under Distributor, got %d", total)
	}
	windowed := len(reg.Search("", nil, ts["ts2"], ts["ts3"]))
	if windowed != 5 {
		t.Fatalf("expected 5 samples between ts2 and ts3, got %d", windowed)
	}
}

func TestRegistry_Discover(t *testing.T) {
	reg, _ := setupRegistryWithData(t)

	t.Run("distinct metrics sorted by name", func(t *testing.T) {
		got := names(reg.Discover("", "", nil, "", ""))
		want := []string{"backlog_depth", "backlog_depth", "bad_metric", "elapsed_time", "elapsed_time", "messages_sent"}
		if !slices.Equal(got, want) {
			t.Fatalf("got %v, want %v", got, want)
		}
	})

	t.Run("values are stripped", func(t *testing.T) {
		for _, metric := range reg.Discover("", "", nil, "", "") {
			if metric.Value.Raw != nil || !metric.Timestamp.IsZero() {
				t.Fatalf("discovered %s still carries a sample: %+v", metric.Name, metric.Value)
			}
		}
	})

	filters := []struct {
		name        string
		substring   string
		description string
		namespace   []string
		unit        string
		kind        MetricType
		want        int
	}{
		{name: "unit", unit: "ms", want: 1},
		{name: "type", kind: Counter, want: 1},
		{name: "namespace", namespace: nsHub, want: 4},
		{name: "name substring", substring: "time", want: 2},
		{name: "description substring", description: "depth test", want: 2},
		{name: "no match", unit: "bytes", want: 0},
	}
	for _, tt := range filters {
		t.Run("filter by "+tt.name, func(t *testing.T) {
			got := reg.Discover(tt.substring, tt.description, tt.namespace, tt.unit, tt.kind)
			if len(got) != tt.want {
				t.Fatalf("expected %d metrics, got %d (%v)", tt.want, len(got), names(got))
			}
		})
	}
}

func TestRegistry_Latest(t *testing.T) {
	reg, ts := setupRegistryWithData(t)

	tests := []struct {
		name      string
		metric    string
		namespace []string
		wantFound bool
		wantRaw   any
		wantAt    time.Time
	}{
		{"newest slice wins", "backlog_depth", nsHub, true, -5, ts["ts3"]},
		{"older slice when newer lacks it", "messages_sent", nsWorker, true, uint64(5), ts["ts2"]},
		{"prefix is not exact namespace", "backlog_depth", []string{"Distributor"}, false, nil, time.Time{}},
		{"unknown metric", "missing", nsHub, false, nil, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			latest, found := reg.Latest(tt.metric, tt.namespace)
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if !found {
				return
			}
			if latest.Value.Raw != tt.wantRaw || !latest.Timestamp.Equal(tt.wantAt) {
				t.Fatalf("got %v at %v, want %v at %v", latest.Value.Raw, latest.Timestamp, tt.wantRaw, tt.wantAt)
			}
		})
	}
}
