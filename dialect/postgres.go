package dialect

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/ormkit/persistq/query"
)

type Postgres struct{}

func NewPostgresDialect() Dialect {
	return &Postgres{}
}

func (p Postgres) QuoteIdentifier(name string) string {
	return `"` + name + `"`
}

func (p Postgres) RenderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", val)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32, float64:
		return strconv.FormatFloat(reflect.ValueOf(val).Float(), 'f', -1, 64)
	case time.Time:
		return "'" + val.Format("2006-01-02 15:04:05.000000") + "'"
	case []byte:
		return fmt.Sprintf(`'\x%x'`, val)
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(val), "'", "''") + "'"
	}
}

func (p Postgres) CommentPrefix(comment string) string {
	if comment == "" {
		return ""
	}
	// a comment must not be able to break out of its delimiters
	return "/* " + strings.ReplaceAll(comment, "*/", "*_/") + " */ "
}

func (p Postgres) LockClause(mode query.LockMode, aliases []string) string {
	var strength string
	switch mode {
	case query.LockPessimisticWrite, query.LockPessimisticForceIncrement:
		strength = "FOR UPDATE"
	case query.LockPessimisticRead, query.LockRead:
		strength = "FOR SHARE"
	default:
		// optimistic modes lock via versioning, not row locks
		return ""
	}
	if len(aliases) == 0 {
		return " " + strength
	}
	quoted := make([]string, len(aliases))
	for i, alias := range aliases {
		quoted[i] = p.QuoteIdentifier(alias)
	}
	return " " + strength + " OF " + strings.Join(quoted, ", ")
}

var _ Dialect = (*Postgres)(nil)
