package exporter

import (
	"io"

	"github.com/VladMinzatu/memlayout/internal/layout"
	"github.com/VladMinzatu/memlayout/internal/modules"
	"github.com/VladMinzatu/memlayout/internal/procinfo"
	collectorpb "go.opentelemetry.io/proto/otlp/collector/profiles/v1development"
	v1 "go.opentelemetry.io/proto/otlp/common/v1"
	profilespb "go.opentelemetry.io/proto/otlp/profiles/v1development"
	resourceV1 "go.opentelemetry.io/proto/otlp/resource/v1"
	"google.golang.org/protobuf/proto"
)

type NowFunc func() uint64 // produces unix nsec

// BuildOltpProfile publishes the module map as the mapping table of an otherwise empty
// profile. Mapping limits come from the layout region starting at each load address.
func BuildOltpProfile(mods []modules.RuntimeModule, regions []layout.MemoryRegion, proc procinfo.Process, now NowFunc) *profilespb.ProfilesData {
	stringTable := []string{""}
	mappingTable := []*profilespb.Mapping{{}}

	for _, m := range mods {
		start := uint64(m.LoadAddress)
		limit := start
		if r, ok := layout.Find(regions, m.LoadAddress); ok {
			limit = uint64(r.End())
		}
		mappingTable = append(mappingTable, &profilespb.Mapping{
			MemoryStart:      start,
			MemoryLimit:      limit,
			FilenameStrindex: strIndex(&stringTable, m.Path),
		})
	}

	profile := &profilespb.Profile{
		TimeUnixNano: now(),
		SampleType: &profilespb.ValueType{
			TypeStrindex: strIndex(&stringTable, "regions"),
			UnitStrindex: strIndex(&stringTable, "bytes"),
		},
	}

	resourceProfiles := &profilespb.ResourceProfiles{
		Resource: &resourceV1.Resource{Attributes: processAttributes(proc)},
		ScopeProfiles: []*profilespb.ScopeProfiles{
			{
				Scope: &v1.InstrumentationScope{
					Name:    "memlayout",
					Version: "v1",
				},
				Profiles: []*profilespb.Profile{profile},
			},
		},
	}

	return &profilespb.ProfilesData{
		ResourceProfiles: []*profilespb.ResourceProfiles{resourceProfiles},
		Dictionary: &profilespb.ProfilesDictionary{
			MappingTable: mappingTable,
			StringTable:  stringTable,
		},
	}
}

// BuildExportRequest wraps profiles data into a collector export request.
func BuildExportRequest(data *profilespb.ProfilesData) *collectorpb.ExportProfilesServiceRequest {
	return &collectorpb.ExportProfilesServiceRequest{
		ResourceProfiles: data.ResourceProfiles,
		Dictionary:       data.Dictionary,
	}
}

func WriteProto(m proto.Message, w io.Writer) error {
	b, err := proto.Marshal(m)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func processAttributes(p procinfo.Process) []*v1.KeyValue {
	attrs := []*v1.KeyValue{intAttr("process.pid", int64(p.PID))}
	if p.Comm != "" {
		attrs = append(attrs, stringAttr("process.executable.name", p.Comm))
	}
	if p.Executable != "" {
		attrs = append(attrs, stringAttr("process.executable.path", p.Executable))
	}
	return attrs
}

func stringAttr(key, value string) *v1.KeyValue {
	return &v1.KeyValue{Key: key, Value: &v1.AnyValue{Value: &v1.AnyValue_StringValue{StringValue: value}}}
}

func intAttr(key string, value int64) *v1.KeyValue {
	return &v1.KeyValue{Key: key, Value: &v1.AnyValue{Value: &v1.AnyValue_IntValue{IntValue: value}}}
}

func strIndex(table *[]string, s string) int32 {
	for i, v := range *table {
		if v == s {
			return int32(i)
		}
	}
	*table = append(*table, s)
	return int32(len(*table) - 1)
}
