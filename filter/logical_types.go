package filter

import (
	"fmt"

	"github.com/hugr-lab/pushdown-go/expr"
)

// LogicalTypeID identifies DuckDB data types.
type LogicalTypeID string

const (
	TypeIDInvalid      LogicalTypeID = "INVALID"
	TypeIDSQLNull      LogicalTypeID = "SQLNULL"
	TypeIDBoolean      LogicalTypeID = "BOOLEAN"
	TypeIDTinyInt      LogicalTypeID = "TINYINT"
	TypeIDSmallInt     LogicalTypeID = "SMALLINT"
	TypeIDInteger      LogicalTypeID = "INTEGER"
	TypeIDBigInt       LogicalTypeID = "BIGINT"
	TypeIDDate         LogicalTypeID = "DATE"
	TypeIDTime         LogicalTypeID = "TIME"
	TypeIDTimestampSec LogicalTypeID = "TIMESTAMP_SEC"
	TypeIDTimestampMs  LogicalTypeID = "TIMESTAMP_MS"
	TypeIDTimestamp    LogicalTypeID = "TIMESTAMP"
	TypeIDTimestampNs  LogicalTypeID = "TIMESTAMP_NS"
	TypeIDDecimal      LogicalTypeID = "DECIMAL"
	TypeIDFloat        LogicalTypeID = "FLOAT"
	TypeIDDouble       LogicalTypeID = "DOUBLE"
	TypeIDChar         LogicalTypeID = "CHAR"
	TypeIDVarchar      LogicalTypeID = "VARCHAR"
	TypeIDBlob         LogicalTypeID = "BLOB"
	TypeIDInterval     LogicalTypeID = "INTERVAL"
	TypeIDUTinyInt     LogicalTypeID = "UTINYINT"
	TypeIDUSmallInt    LogicalTypeID = "USMALLINT"
	TypeIDUInteger     LogicalTypeID = "UINTEGER"
	TypeIDUBigInt      LogicalTypeID = "UBIGINT"
	TypeIDTimestampTZ  LogicalTypeID = "TIMESTAMP_TZ"
	TypeIDTimeTZ       LogicalTypeID = "TIME_TZ"
	TypeIDHugeInt      LogicalTypeID = "HUGEINT"
	TypeIDUHugeInt     LogicalTypeID = "UHUGEINT"
	TypeIDUUID         LogicalTypeID = "UUID"
	TypeIDStruct       LogicalTypeID = "STRUCT"
	TypeIDList         LogicalTypeID = "LIST"
	TypeIDMap          LogicalTypeID = "MAP"
	TypeIDEnum         LogicalTypeID = "ENUM"
	TypeIDArray        LogicalTypeID = "ARRAY"
)

// typeIDAliases maps DuckDB aliases and full SQL names to canonical IDs.
var typeIDAliases = map[LogicalTypeID]LogicalTypeID{
	"TIMESTAMP WITH TIME ZONE":    TypeIDTimestampTZ,
	"TIMESTAMPTZ":                 TypeIDTimestampTZ,
	"TIME WITH TIME ZONE":         TypeIDTimeTZ,
	"TIMETZ":                      TypeIDTimeTZ,
	"TIMESTAMP_S":                 TypeIDTimestampSec,
	"TIMESTAMP WITHOUT TIME ZONE": TypeIDTimestamp,
	"DATETIME":                    TypeIDTimestamp,
	"INT":                         TypeIDInteger,
	"INT4":                        TypeIDInteger,
	"INT8":                        TypeIDBigInt,
	"INT2":                        TypeIDSmallInt,
	"INT1":                        TypeIDTinyInt,
	"UINT8":                       TypeIDUBigInt,
	"UINT4":                       TypeIDUInteger,
	"UINT2":                       TypeIDUSmallInt,
	"UINT1":                       TypeIDUTinyInt,
	"INT128":                      TypeIDHugeInt,
	"UINT128":                     TypeIDUHugeInt,
	"FLOAT4":                      TypeIDFloat,
	"FLOAT8":                      TypeIDDouble,
	"REAL":                        TypeIDFloat,
	"STRING":                      TypeIDVarchar,
	"TEXT":                        TypeIDVarchar,
	"BOOL":                        TypeIDBoolean,
	"BYTEA":                       TypeIDBlob,
}

// Normalize returns the canonical ID for DuckDB aliases such as INT4 or
// TIMESTAMP WITH TIME ZONE.
func (t LogicalTypeID) Normalize() LogicalTypeID {
	if mapped, ok := typeIDAliases[t]; ok {
		return mapped
	}
	return t
}

// LogicalType is a DuckDB type as serialized in filter JSON.
type LogicalType struct {
	ID LogicalTypeID

	// Decimal is set for DECIMAL types that carried type info.
	Decimal *DecimalTypeInfo
}

// DecimalTypeInfo holds DECIMAL width and scale.
type DecimalTypeInfo struct {
	Width int32 `json:"width"`
	Scale int32 `json:"scale"`
}

// Kind returns the scalar kind values of this type are parsed into.
// Types without a dedicated kind report expr.KindOther.
func (t LogicalType) Kind() expr.Kind {
	switch t.ID {
	case TypeIDSQLNull, "":
		return expr.KindNull
	case TypeIDBoolean:
		return expr.KindBoolean
	case TypeIDTinyInt:
		return expr.KindInt8
	case TypeIDSmallInt:
		return expr.KindInt16
	case TypeIDInteger:
		return expr.KindInt32
	case TypeIDBigInt:
		return expr.KindInt64
	case TypeIDUTinyInt:
		return expr.KindUint8
	case TypeIDUSmallInt:
		return expr.KindUint16
	case TypeIDUInteger:
		return expr.KindUint32
	case TypeIDUBigInt:
		return expr.KindUint64
	case TypeIDFloat:
		return expr.KindFloat32
	case TypeIDDouble:
		return expr.KindFloat64
	case TypeIDVarchar, TypeIDChar:
		return expr.KindUtf8
	case TypeIDBlob:
		return expr.KindBinary
	case TypeIDDate:
		return expr.KindDate32
	case TypeIDTimestamp, TypeIDTimestampTZ, TypeIDTimestampMs, TypeIDTimestampNs, TypeIDTimestampSec:
		return expr.KindTimestamp
	case TypeIDDecimal, TypeIDHugeInt, TypeIDUHugeInt:
		return expr.KindDecimal
	}
	return expr.KindOther
}

// timeUnit returns the storage unit of timestamp types.
func (t LogicalType) timeUnit() expr.TimeUnit {
	switch t.ID {
	case TypeIDTimestampSec:
		return expr.Second
	case TypeIDTimestampMs:
		return expr.Millisecond
	case TypeIDTimestampNs:
		return expr.Nanosecond
	}
	return expr.Microsecond
}

// SQLName returns the DuckDB SQL spelling of the type.
func (t LogicalType) SQLName() string {
	switch t.ID {
	case TypeIDDecimal:
		if t.Decimal != nil {
			return fmt.Sprintf("DECIMAL(%d, %d)", t.Decimal.Width, t.Decimal.Scale)
		}
		return "DECIMAL"
	case TypeIDTimeTZ:
		return "TIME WITH TIME ZONE"
	case TypeIDTimestampTZ:
		return "TIMESTAMP WITH TIME ZONE"
	case TypeIDTimestampSec:
		return "TIMESTAMP_S"
	}
	return string(t.ID)
}

// HugeInt is a 128-bit signed integer split into halves.
type HugeInt struct {
	Upper int64  `json:"upper"`
	Lower uint64 `json:"lower"`
}

// UHugeInt is a 128-bit unsigned integer split into halves.
type UHugeInt struct {
	Upper uint64 `json:"upper"`
	Lower uint64 `json:"lower"`
}

// Interval is a DuckDB interval value.
type Interval struct {
	Months int32 `json:"months"`
	Days   int32 `json:"days"`
	Micros int64 `json:"micros"`
}

// base64String is how DuckDB serializes non-UTF8 strings and blobs.
type base64String struct {
	Base64 string `json:"base64"`
}
