package backend

// Op é o operador de um predicado
type Op string

const (
	OpEq    Op = "eq"
	OpNeq   Op = "neq"
	OpIn    Op = "in"
	OpGte   Op = "gte"
	OpLte   Op = "lte"
	OpILike Op = "ilike"
	OpIsNil Op = "is"
)

// Predicate é uma condição sobre uma coluna ou, quando Any não é vazio,
// uma disjunção de predicados.
type Predicate struct {
	Column string
	Op     Op
	Value  any
	Any    []Predicate
}

func Eq(col string, v any) Predicate      { return Predicate{Column: col, Op: OpEq, Value: v} }
func Neq(col string, v any) Predicate     { return Predicate{Column: col, Op: OpNeq, Value: v} }
func Gte(col string, v any) Predicate     { return Predicate{Column: col, Op: OpGte, Value: v} }
func Lte(col string, v any) Predicate     { return Predicate{Column: col, Op: OpLte, Value: v} }
func ILike(col, pattern string) Predicate { return Predicate{Column: col, Op: OpILike, Value: pattern} }
func IsNil(col string) Predicate          { return Predicate{Column: col, Op: OpIsNil} }

// In aceita qualquer slice; os valores são copiados para []any
func In[T any](col string, values []T) Predicate {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return Predicate{Column: col, Op: OpIn, Value: vs}
}

// Or agrupa predicados em uma disjunção
func Or(preds ...Predicate) Predicate {
	return Predicate{Any: preds}
}

// IsGroup indica se o predicado é um grupo OR
func (p Predicate) IsGroup() bool {
	return len(p.Any) > 0
}

type Order struct {
	Column    string
	Ascending bool
}

// Query descreve uma leitura, atualização ou remoção em uma tabela.
// Range usa limites inclusivos (from..to), como no backend hospedado.
type Query struct {
	Table    string
	Filters  []Predicate
	Orders   []Order
	From     int
	To       int
	HasRange bool
}

func From(table string) *Query {
	return &Query{Table: table}
}

func (q *Query) Where(preds ...Predicate) *Query {
	q.Filters = append(q.Filters, preds...)
	return q
}

func (q *Query) Eq(col string, v any) *Query  { return q.Where(Eq(col, v)) }
func (q *Query) Neq(col string, v any) *Query { return q.Where(Neq(col, v)) }
func (q *Query) Gte(col string, v any) *Query { return q.Where(Gte(col, v)) }
func (q *Query) Lte(col string, v any) *Query { return q.Where(Lte(col, v)) }
func (q *Query) ILike(col, pattern string) *Query {
	return q.Where(ILike(col, pattern))
}
func (q *Query) In(col string, values []any) *Query { return q.Where(In(col, values)) }
func (q *Query) Or(preds ...Predicate) *Query       { return q.Where(Or(preds...)) }

func (q *Query) Order(col string, ascending bool) *Query {
	q.Orders = append(q.Orders, Order{Column: col, Ascending: ascending})
	return q
}

func (q *Query) Range(from, to int) *Query {
	q.From, q.To, q.HasRange = from, to, true
	return q
}

// Limit retorna o número de linhas pedido pelo Range (0 se não houver)
func (q *Query) Limit() int {
	if !q.HasRange || q.To < q.From {
		return 0
	}
	return q.To - q.From + 1
}

// Unranged copia a query sem ordenação e paginação, para contagens
func (q *Query) Unranged() *Query {
	return &Query{Table: q.Table, Filters: append([]Predicate(nil), q.Filters...)}
}
