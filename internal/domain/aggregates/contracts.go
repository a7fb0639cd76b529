package aggregates

// TxOwner says who opens the transaction around an aggregate write.
type TxOwner string

const (
	// TxOwnedByAggregate: write methods open and commit their own transaction;
	// callers pass a plain context, never a *gorm.DB.
	TxOwnedByAggregate TxOwner = "aggregate"
	TxOwnedByCaller    TxOwner = "caller"
)

// Contract describes an aggregate's write boundary: the tables it mutates
// together and the unique keys whose violations it translates into domain
// errors.
type Contract struct {
	Name       string
	TxOwner    TxOwner
	Tables     []string
	UniqueKeys []string
	Notes      string
}

// Aggregate is implemented by every aggregate so wiring and tests can
// inspect its boundary.
type Aggregate interface {
	Contract() Contract
}

func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.TxOwner == TxOwnedByAggregate
}

// Guards reports whether key is one of the unique keys the aggregate maps.
func (c Contract) Guards(key string) bool {
	for _, k := range c.UniqueKeys {
		if k == key {
			return true
		}
	}
	return false
}
