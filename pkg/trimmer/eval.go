package trimmer

// eval evaluates e in scope s. Failures are recorded and evaluate to
// Undefined so rendering can go on; missing attributes and items are
// Undefined without being recorded.
func (r *renderer) eval(s *scope, e Expr) Variable {
	switch e := e.(type) {
	case *StrLit:
		return Str(e.Value)
	case *NumLit:
		return e.Value.Variable()
	case *VarRef:
		v, err := s.lookup(e.Name)
		if err != nil {
			r.record(e, err)
			return Undefined{}
		}
		return v
	case *AttrExpr:
		v, err := Attr(r.eval(s, e.Target), e.Name)
		return r.tolerate(e, v, err)
	case *IndexExpr:
		target := r.eval(s, e.Target)
		v, err := Index(target, r.eval(s, e.Key))
		return r.tolerate(e, v, err)
	case *NotExpr:
		return Bool(!truthy(r.eval(s, e.Operand)))
	case *AndExpr:
		left := r.eval(s, e.Left)
		if !truthy(left) {
			return left
		}
		return r.eval(s, e.Right)
	case *OrExpr:
		left := r.eval(s, e.Left)
		if truthy(left) {
			return left
		}
		return r.eval(s, e.Right)
	case *CompareExpr:
		return r.compareChain(s, e)
	case *ArithExpr:
		return r.arith(s, e)
	case *ListExpr:
		list := make(List, len(e.Items))
		for i, item := range e.Items {
			list[i] = r.eval(s, item)
		}
		return list
	case *DictExpr:
		m := make(Map, len(e.Items))
		for _, item := range e.Items {
			k, err := AsStrKey(r.eval(s, item.Key))
			if err != nil {
				r.record(item.Key, err)
				continue
			}
			m[k] = r.eval(s, item.Value)
		}
		return m
	case *RangeExpr:
		return r.rangeOf(s, e)
	}
	return Undefined{}
}

func (r *renderer) tolerate(e Expr, v Variable, err error) Variable {
	if err == nil {
		return v
	}
	if !isTolerated(err) {
		r.record(e, err)
	}
	return Undefined{}
}

func (r *renderer) number(s *scope, e Expr) (Number, bool) {
	mark := len(r.errs)
	v := r.eval(s, e)
	n, err := AsNumber(v)
	if err != nil {
		if !r.failed(v, mark) {
			r.record(e, err)
		}
		return Number{}, false
	}
	return n, true
}

// failed reports whether v is the Undefined left behind by an error
// recorded after mark. Such an operand is not reported a second time.
func (r *renderer) failed(v Variable, mark int) bool {
	_, undef := v.(Undefined)
	return undef && len(r.errs) > mark
}

func (r *renderer) arith(s *scope, e *ArithExpr) Variable {
	a, ok := r.number(s, e.Left)
	if !ok {
		return Undefined{}
	}
	b, ok := r.number(s, e.Right)
	if !ok {
		return Undefined{}
	}
	var (
		res Number
		err error
	)
	switch e.Op {
	case "+":
		res = a.Add(b)
	case "-":
		res = a.Sub(b)
	case "*":
		res = a.Mul(b)
	case "/":
		res, err = a.Div(b)
	case "%":
		res, err = a.Mod(b)
	}
	if err != nil {
		r.record(e, err)
		return Undefined{}
	}
	return res.Variable()
}

func (r *renderer) rangeOf(s *scope, e *RangeExpr) Variable {
	rv := rangeValue{start: IntNumber(0), open: e.End == nil}
	if e.Start != nil {
		n, ok := r.number(s, e.Start)
		if !ok {
			return Undefined{}
		}
		rv.start = n
	}
	if e.End != nil {
		n, ok := r.number(s, e.End)
		if !ok {
			return Undefined{}
		}
		rv.end = n
	}
	return rv
}

// isNothing reports whether v is an absent value.
func isNothing(v Variable) bool {
	switch v.(type) {
	case Undefined, None:
		return true
	}
	return false
}

// Compare applies a comparison operator to two variables. == and != treat
// None and Undefined as equal to each other and unequal to anything else.
func Compare(op string, a, b Variable) (bool, error) {
	if op == "==" || op == "!=" {
		if isNothing(a) || isNothing(b) {
			return (isNothing(a) && isNothing(b)) == (op == "=="), nil
		}
	}
	ca, err := AsComparable(a)
	if err != nil {
		return false, err
	}
	cb, err := AsComparable(b)
	if err != nil {
		return false, err
	}
	c, ok, err := ca.Compare(cb)
	if err != nil {
		return false, err
	}
	if !ok {
		return op == "!=", nil
	}
	switch op {
	case "==":
		return c == 0, nil
	case "!=":
		return c != 0, nil
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case ">":
		return c > 0, nil
	case ">=":
		return c >= 0, nil
	}
	return false, &DataError{Kind: Custom, Detail: "unknown comparison operator " + op}
}

func (r *renderer) compareChain(s *scope, e *CompareExpr) Variable {
	mark := len(r.errs)
	left := r.eval(s, e.Left)
	for _, op := range e.Ops {
		right := r.eval(s, op.Right)
		ok, err := Compare(op.Op, left, right)
		if err != nil {
			if !r.failed(left, mark) && !r.failed(right, mark) {
				r.record(e, err)
			}
			return Undefined{}
		}
		if !ok {
			return Bool(false)
		}
		left = right
	}
	return Bool(true)
}
