package pgsource

import (
	"encoding/json"
	"math"
	"math/big"
	"net/netip"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// normalize turns pgx's decoded values into types core.NormalizeValue
// understands. Everything else passes through unchanged.
func normalize(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		return numeric(x)
	case [16]byte:
		return uuid.UUID(x).String()
	case netip.Prefix:
		return x.String()
	case pgtype.Interval:
		if !x.Valid {
			return nil
		}
		iv, err := x.Value()
		if err != nil {
			return nil
		}
		return iv
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return nil
		}
		return string(b)
	default:
		return v
	}
}

// numeric keeps whole numbers integral so DECIMAL(p,0) columns read back
// as int64.
func numeric(n pgtype.Numeric) any {
	if !n.Valid {
		return nil
	}
	if n.NaN {
		return math.NaN()
	}
	switch n.InfinityModifier {
	case pgtype.Infinity:
		return math.Inf(1)
	case pgtype.NegativeInfinity:
		return math.Inf(-1)
	}

	if n.Exp >= 0 && n.Int != nil {
		i := new(big.Int).Set(n.Int)
		if n.Exp > 0 {
			i.Mul(i, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n.Exp)), nil))
		}
		if i.IsInt64() {
			return i.Int64()
		}
	}

	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return nil
	}
	return f.Float64
}
