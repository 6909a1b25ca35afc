package flight

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/pushdown-go/auth"
	"github.com/hugr-lab/pushdown-go/catalog"
)

var usersSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
}, nil)

func usersBatch(mem memory.Allocator, ids []int64, names []string) arrow.RecordBatch {
	b := array.NewRecordBuilder(mem, usersSchema)
	defer b.Release()
	b.Field(0).(*array.Int64Builder).AppendValues(ids, nil)
	b.Field(1).(*array.StringBuilder).AppendValues(names, nil)
	return b.NewRecordBatch()
}

// testCatalog holds the tables
//
//	main.users       MemoryTable, filters itself
//	main.unfiltered  FuncTable ignoring the filter
//	main.broken      FuncTable that panics
//	main.mismatch    FuncTable whose reader has the wrong schema
func testCatalog(t *testing.T, mem memory.Allocator) *catalog.MemoryCatalog {
	t.Helper()

	r1 := usersBatch(mem, []int64{1, 2}, []string{"alice", "bob"})
	r2 := usersBatch(mem, []int64{3, 4}, []string{"carol", "dave"})
	defer r1.Release()
	defer r2.Release()

	users, err := catalog.NewMemoryTable("users", "", usersSchema, mem, r1, r2)
	if err != nil {
		t.Fatalf("NewMemoryTable: %v", err)
	}
	t.Cleanup(users.Release)

	unfiltered := catalog.NewFuncTable("unfiltered", "", usersSchema,
		func(ctx context.Context, opts *catalog.ScanOptions) (array.RecordReader, error) {
			rec := usersBatch(mem, []int64{1, 2, 3, 4}, []string{"alice", "bob", "carol", "dave"})
			defer rec.Release()
			return array.NewRecordReader(usersSchema, []arrow.RecordBatch{rec})
		})
	broken := catalog.NewFuncTable("broken", "", usersSchema,
		func(ctx context.Context, opts *catalog.ScanOptions) (array.RecordReader, error) {
			panic("storage on fire")
		})
	other := arrow.NewSchema([]arrow.Field{{Name: "x", Type: arrow.PrimitiveTypes.Int32}}, nil)
	mismatch := catalog.NewFuncTable("mismatch", "", usersSchema,
		func(ctx context.Context, opts *catalog.ScanOptions) (array.RecordReader, error) {
			return array.NewRecordReader(other, nil)
		})

	cat := catalog.NewMemoryCatalog("db")
	cat.AddSchema("main", "")
	cat.AddTable("main", users)
	cat.AddTable("main", unfiltered)
	cat.AddTable("main", broken)
	cat.AddTable("main", mismatch)
	return cat
}

type testServer struct {
	client flight.Client
	logs   *syncBuffer
}

// syncBuffer collects server logs written from handler goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestServer(t *testing.T, authenticator auth.Authenticator) *testServer {
	t.Helper()

	mem := memory.NewCheckedAllocator(memory.DefaultAllocator)
	t.Cleanup(func() { mem.AssertSize(t, 0) })

	cat := testCatalog(t, mem)

	logs := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(UnaryServerInterceptor(authenticator)),
		grpc.ChainStreamInterceptor(StreamServerInterceptor(authenticator)),
	)
	RegisterFlightServer(grpcServer, NewServer(cat, mem, logger, nil))
	go func() {
		_ = grpcServer.Serve(lis)
	}()
	t.Cleanup(grpcServer.GracefulStop)

	client, err := flight.NewClientWithMiddleware(lis.Addr().String(), nil, nil,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return &testServer{client: client, logs: logs}
}

// doGet fetches the ids streamed for ticket.
func (s *testServer) doGet(ctx context.Context, ticket []byte) ([]int64, error) {
	stream, err := s.client.DoGet(ctx, &flight.Ticket{Ticket: ticket})
	if err != nil {
		return nil, err
	}
	rdr, err := flight.NewRecordReader(stream)
	if err != nil {
		return nil, err
	}
	defer rdr.Release()

	if !rdr.Schema().Equal(usersSchema) {
		return nil, fmt.Errorf("unexpected schema %s", rdr.Schema())
	}
	ids := []int64{}
	for rdr.Next() {
		ids = append(ids, rdr.RecordBatch().Column(0).(*array.Int64).Int64Values()...)
	}
	if err := rdr.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return ids, nil
}

func mustTicket(t *testing.T, td *TicketData, compress bool) []byte {
	t.Helper()
	ticket, err := EncodeTicket(td, compress)
	if err != nil {
		t.Fatalf("EncodeTicket: %v", err)
	}
	return ticket
}

const (
	columnID = `{"expression_class":"BOUND_COLUMN_REF","type":"BOUND_COLUMN_REF","alias":"",` +
		`"return_type":{"id":"BIGINT","type_info":null},"binding":{"table_index":0,"column_index":0},"depth":0}`
	columnName = `{"expression_class":"BOUND_COLUMN_REF","type":"BOUND_COLUMN_REF","alias":"",` +
		`"return_type":{"id":"VARCHAR","type_info":null},"binding":{"table_index":0,"column_index":1},"depth":0}`
)

func constant(typeID, value string) string {
	return fmt.Sprintf(`{"expression_class":"BOUND_CONSTANT","type":"VALUE_CONSTANT","alias":"",`+
		`"value":{"type":{"id":%q,"type_info":null},"is_null":false,"value":%s}}`, typeID, value)
}

func comparison(typ, left, right string) string {
	return fmt.Sprintf(`{"expression_class":"BOUND_COMPARISON","type":%q,"alias":"","left":%s,"right":%s}`,
		typ, left, right)
}

func filters(exprs ...string) []byte {
	return []byte(`{"filters":[` + strings.Join(exprs, ",") +
		`],"column_binding_names_by_index":["id","name"]}`)
}

func TestDoGet(t *testing.T) {
	s := newTestServer(t, nil)

	idAtLeast2 := comparison("COMPARE_GREATERTHANOREQUALTO", columnID, constant("BIGINT", "2"))
	nameNotBob := comparison("COMPARE_NOTEQUAL", columnName, constant("VARCHAR", `"bob"`))
	// A CASE expression has no pushdown equivalent.
	opaque := `{"expression_class":"BOUND_CASE","type":"CASE_EXPR","alias":"","case_checks":[],"else_expr":null}`

	tests := []struct {
		name string
		td   TicketData
		want []int64
	}{
		{"no filters", TicketData{Schema: "main", Table: "users"}, []int64{1, 2, 3, 4}},
		{"bare reference", TicketData{Table: "users"}, []int64{1, 2, 3, 4}},
		{"full reference", TicketData{Catalog: "db", Schema: "main", Table: "users"}, []int64{1, 2, 3, 4}},
		{"pushed filter", TicketData{Table: "users", Filters: filters(idAtLeast2)}, []int64{2, 3, 4}},
		{"two filters", TicketData{Table: "users", Filters: filters(idAtLeast2, nameNotBob)}, []int64{3, 4}},
		{"residual left to client", TicketData{Table: "users", Filters: filters(idAtLeast2, opaque)}, []int64{2, 3, 4}},
		{"server applies filter", TicketData{Table: "unfiltered", Filters: filters(idAtLeast2, nameNotBob)}, []int64{3, 4}},
		{"nothing matches", TicketData{Table: "users", Filters: filters(
			comparison("COMPARE_GREATERTHAN", columnID, constant("BIGINT", "10")))}, []int64{}},
		{"projection hint", TicketData{Table: "users", Columns: []string{"name"}}, []int64{1, 2, 3, 4}},
		// DuckDB sorts NaN above every number, so id < NaN holds for every row.
		{"nan comparison left to client", TicketData{Table: "users", Filters: filters(
			comparison("COMPARE_LESSTHAN", columnID, constant("DOUBLE", `"nan"`)))}, []int64{1, 2, 3, 4}},
		{"nan comparison on unfiltered table", TicketData{Table: "unfiltered", Filters: filters(
			comparison("COMPARE_LESSTHAN", columnID, constant("DOUBLE", `"nan"`)))}, []int64{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		for _, compress := range []bool{false, true} {
			t.Run(fmt.Sprintf("%s/compress=%t", tt.name, compress), func(t *testing.T) {
				got, err := s.doGet(context.Background(), mustTicket(t, &tt.td, compress))
				if err != nil {
					t.Fatalf("DoGet failed: %v", err)
				}
				if !slices.Equal(got, tt.want) {
					t.Errorf("ids = %v, want %v", got, tt.want)
				}
			})
		}
	}

	if !strings.Contains(s.logs.String(), "Filter not pushed down") {
		t.Error("residual conjunct was not logged")
	}
	if !strings.Contains(s.logs.String(), "NaN ordering") {
		t.Error("NaN conjunct was not logged")
	}
}

func TestDoGetErrors(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name   string
		ticket []byte
		code   codes.Code
	}{
		{"garbage ticket", []byte("garbage"), codes.InvalidArgument},
		{"unknown table", mustTicket(t, &TicketData{Table: "missing"}, false), codes.NotFound},
		{"unknown schema", mustTicket(t, &TicketData{Schema: "other", Table: "users"}, false), codes.NotFound},
		{"catalog mismatch", mustTicket(t, &TicketData{Catalog: "other", Schema: "main", Table: "users"}, false), codes.InvalidArgument},
		{"malformed filters", mustTicket(t, &TicketData{Table: "users", Filters: []byte("{")}, false), codes.InvalidArgument},
		{"unknown filter column", mustTicket(t, &TicketData{Table: "users", Filters: []byte(`{"filters":[` +
			comparison("COMPARE_EQUAL", columnName, constant("VARCHAR", `"x"`)) +
			`],"column_binding_names_by_index":["id","email"]}`)}, false), codes.InvalidArgument},
		{"panicking scan", mustTicket(t, &TicketData{Table: "broken"}, false), codes.Internal},
		{"schema mismatch", mustTicket(t, &TicketData{Table: "mismatch"}, false), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.doGet(context.Background(), tt.ticket)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := status.Code(err); got != tt.code {
				t.Errorf("code = %s, want %s (%v)", got, tt.code, err)
			}
		})
	}
}

func TestGetFlightInfo(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()
	mem := memory.NewGoAllocator()

	t.Run("path", func(t *testing.T) {
		for _, path := range [][]string{{"users"}, {"main", "users"}, {"db", "main", "users"}} {
			info, err := s.client.GetFlightInfo(ctx, &flight.FlightDescriptor{
				Type: flight.DescriptorPATH,
				Path: path,
			})
			if err != nil {
				t.Fatalf("GetFlightInfo(%v): %v", path, err)
			}
			schema, err := flight.DeserializeSchema(info.GetSchema(), mem)
			if err != nil {
				t.Fatalf("DeserializeSchema: %v", err)
			}
			if !schema.Equal(usersSchema) {
				t.Errorf("schema = %s", schema)
			}
			ids, err := s.doGet(ctx, info.GetEndpoint()[0].GetTicket().GetTicket())
			if err != nil {
				t.Fatalf("DoGet with returned ticket: %v", err)
			}
			if len(ids) != 4 {
				t.Errorf("ids = %v", ids)
			}
		}
	})

	t.Run("cmd", func(t *testing.T) {
		filter := filters(comparison("COMPARE_LESSTHAN", columnID, constant("BIGINT", "3")))
		info, err := s.client.GetFlightInfo(ctx, &flight.FlightDescriptor{
			Type: flight.DescriptorCMD,
			Cmd:  mustTicket(t, &TicketData{Table: "users", Filters: filter}, true),
		})
		if err != nil {
			t.Fatalf("GetFlightInfo: %v", err)
		}
		ids, err := s.doGet(ctx, info.GetEndpoint()[0].GetTicket().GetTicket())
		if err != nil {
			t.Fatalf("DoGet with returned ticket: %v", err)
		}
		if !slices.Equal(ids, []int64{1, 2}) {
			t.Errorf("ids = %v, want [1 2]", ids)
		}
	})

	errorTests := []struct {
		name string
		desc *flight.FlightDescriptor
		code codes.Code
	}{
		{"empty path", &flight.FlightDescriptor{Type: flight.DescriptorPATH}, codes.InvalidArgument},
		{"long path", &flight.FlightDescriptor{Type: flight.DescriptorPATH, Path: []string{"a", "b", "c", "d"}}, codes.InvalidArgument},
		{"unknown table", &flight.FlightDescriptor{Type: flight.DescriptorPATH, Path: []string{"main", "nope"}}, codes.NotFound},
		{"bad cmd", &flight.FlightDescriptor{Type: flight.DescriptorCMD, Cmd: []byte("nope")}, codes.InvalidArgument},
		{"unknown type", &flight.FlightDescriptor{Type: flight.DescriptorUNKNOWN}, codes.InvalidArgument},
	}
	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.client.GetFlightInfo(ctx, tt.desc)
			if got := status.Code(err); got != tt.code {
				t.Errorf("code = %s, want %s (%v)", got, tt.code, err)
			}
		})
	}
}

func TestListFlights(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	list := func(criteria string) []string {
		t.Helper()
		stream, err := s.client.ListFlights(ctx, &flight.Criteria{Expression: []byte(criteria)})
		if err != nil {
			t.Fatalf("ListFlights: %v", err)
		}
		var names []string
		for {
			info, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				t.Fatalf("Recv: %v", err)
			}
			td, err := DecodeTicket(info.GetEndpoint()[0].GetTicket().GetTicket())
			if err != nil {
				t.Fatalf("DecodeTicket: %v", err)
			}
			names = append(names, td.Reference().String())
		}
		return names
	}

	want := []string{"db.main.broken", "db.main.mismatch", "db.main.unfiltered", "db.main.users"}
	got := list("")
	slices.Sort(got)
	if !slices.Equal(got, want) {
		t.Errorf("flights = %v, want %v", got, want)
	}
	if got := list("other"); len(got) != 0 {
		t.Errorf("flights for unknown schema = %v", got)
	}
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t, auth.BearerAuth(func(token string) (string, error) {
		if token == "secret" {
			return "tester", nil
		}
		return "", errors.New("unknown token")
	}))
	ticket := mustTicket(t, &TicketData{Table: "users"}, false)

	tests := []struct {
		name   string
		header string
		code   codes.Code
	}{
		{"no header", "", codes.Unauthenticated},
		{"wrong token", "Bearer wrong", codes.Unauthenticated},
		{"wrong scheme", "Basic secret", codes.Unauthenticated},
		{"valid token", "Bearer secret", codes.OK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.header != "" {
				ctx = metadata.AppendToOutgoingContext(ctx, HeaderAuthorization, tt.header)
			}
			_, err := s.doGet(ctx, ticket)
			if got := status.Code(err); got != tt.code {
				t.Errorf("DoGet code = %s, want %s (%v)", got, tt.code, err)
			}
			_, err = s.client.GetFlightInfo(ctx, &flight.FlightDescriptor{
				Type: flight.DescriptorPATH,
				Path: []string{"users"},
			})
			if got := status.Code(err); got != tt.code {
				t.Errorf("GetFlightInfo code = %s, want %s (%v)", got, tt.code, err)
			}
		})
	}
}

func TestRequestMetadataLogged(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := metadata.AppendToOutgoingContext(context.Background(),
		HeaderTraceID, "trace-123",
		HeaderSessionID, "session-456",
	)
	if _, err := s.doGet(ctx, mustTicket(t, &TicketData{Table: "users"}, false)); err != nil {
		t.Fatalf("DoGet failed: %v", err)
	}
	logs := s.logs.String()
	if !strings.Contains(logs, "trace_id=trace-123") || !strings.Contains(logs, "session_id=session-456") {
		t.Errorf("request metadata missing from logs:\n%s", logs)
	}
}
