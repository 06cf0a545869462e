package trimmer

import (
	"bytes"
	"fmt"
	"strings"
)

type Visitor interface {
	Visit(n Node) error
}

// VisitorFunc adapts a function to a Visitor.
type VisitorFunc func(n Node) error

func (f VisitorFunc) Visit(n Node) error { return f(n) }

// Walk visits n and then its children depth first, stopping at the first
// error.
func Walk(v Visitor, n Node) error {
	if err := v.Visit(n); err != nil {
		return err
	}
	walkAll := func(nodes ...Node) error {
		for _, c := range nodes {
			if c == nil {
				continue
			}
			if err := Walk(v, c); err != nil {
				return err
			}
		}
		return nil
	}
	switch t := n.(type) {
	case Body:
		for _, s := range t.Statements {
			if err := Walk(v, s); err != nil {
				return err
			}
		}
	case *OutputStmt:
		return walkAll(t.Expr)
	case *CondStmt:
		for _, b := range t.Branches {
			if err := walkAll(b.Cond, b.Body); err != nil {
				return err
			}
		}
		return walkAll(t.Otherwise)
	case *LoopStmt:
		if err := walkAll(t.Iter); err != nil {
			return err
		}
		if t.Skip != nil {
			if err := walkAll(t.Skip); err != nil {
				return err
			}
		}
		return walkAll(t.Body)
	case *AliasStmt:
		return walkAll(t.Value)
	case *AttrExpr:
		return walkAll(t.Target)
	case *IndexExpr:
		return walkAll(t.Target, t.Key)
	case *NotExpr:
		return walkAll(t.Operand)
	case *AndExpr:
		return walkAll(t.Left, t.Right)
	case *OrExpr:
		return walkAll(t.Left, t.Right)
	case *CompareExpr:
		if err := walkAll(t.Left); err != nil {
			return err
		}
		for _, op := range t.Ops {
			if err := walkAll(op.Right); err != nil {
				return err
			}
		}
	case *ArithExpr:
		return walkAll(t.Left, t.Right)
	case *ListExpr:
		for _, item := range t.Items {
			if err := walkAll(item); err != nil {
				return err
			}
		}
	case *DictExpr:
		for _, item := range t.Items {
			if err := walkAll(item.Key, item.Value); err != nil {
				return err
			}
		}
	case *RangeExpr:
		if t.Start != nil {
			if err := walkAll(t.Start); err != nil {
				return err
			}
		}
		if t.End != nil {
			return walkAll(t.End)
		}
	}
	return nil
}

// Variables returns the names of the variables a template reads that it
// does not bind itself, in order of first use.
func Variables(t *Template) []string {
	var names []string
	seen := map[string]bool{}
	bound := map[string]bool{}
	_ = Walk(VisitorFunc(func(n Node) error {
		switch n := n.(type) {
		case *LoopStmt:
			for _, name := range n.Target {
				bound[name] = true
			}
		case *AliasStmt:
			bound[n.Name] = true
		case *VarRef:
			if !seen[n.Name] && !bound[n.Name] {
				seen[n.Name] = true
				names = append(names, n.Name)
			}
		}
		return nil
	}), t.body)
	return names
}

// Pretty returns a line-oriented representation of the template.
func Pretty(t *Template) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Template(syntax=%s)\n", t.options.Syntax)
	ppBody(&buf, 2, t.body)
	return buf.String()
}

func ppBody(buf *bytes.Buffer, indent int, body Body) {
	for _, s := range body.Statements {
		ppStmt(buf, indent, s)
	}
}

func ppStmt(buf *bytes.Buffer, indent int, s Statement) {
	buf.WriteString(strings.Repeat(" ", indent))
	switch t := s.(type) {
	case *RawStmt:
		fmt.Fprintf(buf, "Raw(%q)\n", t.Text)
	case *OutputStmt:
		fmt.Fprintf(buf, "Output(%s, %s, %s", ExprString(t.Expr), t.Left, t.Right)
		if t.Filter != "" {
			fmt.Fprintf(buf, ", filter=%s", t.Filter)
		}
		buf.WriteString(")\n")
	case *CondStmt:
		buf.WriteString("Cond\n")
		for _, b := range t.Branches {
			fmt.Fprintf(buf, "%sIf(%s)\n", strings.Repeat(" ", indent+2), ExprString(b.Cond))
			ppBody(buf, indent+4, b.Body)
		}
		if len(t.Otherwise.Statements) > 0 {
			fmt.Fprintf(buf, "%sElse\n", strings.Repeat(" ", indent+2))
			ppBody(buf, indent+4, t.Otherwise)
		}
	case *LoopStmt:
		fmt.Fprintf(buf, "Loop(%s in %s", strings.Join(t.Target, ", "), ExprString(t.Iter))
		if t.Skip != nil {
			fmt.Fprintf(buf, " skip if %s", ExprString(t.Skip))
		}
		buf.WriteString(")\n")
		ppBody(buf, indent+2, t.Body)
	case *AliasStmt:
		fmt.Fprintf(buf, "Let(%s = %s)\n", t.Name, ExprString(t.Value))
	case *LineJoinStmt:
		buf.WriteString("LineJoin\n")
	}
}

// ExprString renders an expression back to fully parenthesized source.
func ExprString(e Expr) string {
	switch t := e.(type) {
	case *StrLit:
		return fmt.Sprintf("%q", t.Value)
	case *NumLit:
		return t.Value.String()
	case *VarRef:
		return t.Name
	case *AttrExpr:
		return ExprString(t.Target) + "." + t.Name
	case *IndexExpr:
		return ExprString(t.Target) + "[" + ExprString(t.Key) + "]"
	case *NotExpr:
		return "(not " + ExprString(t.Operand) + ")"
	case *AndExpr:
		return "(" + ExprString(t.Left) + " and " + ExprString(t.Right) + ")"
	case *OrExpr:
		return "(" + ExprString(t.Left) + " or " + ExprString(t.Right) + ")"
	case *CompareExpr:
		var b strings.Builder
		b.WriteString("(" + ExprString(t.Left))
		for _, op := range t.Ops {
			b.WriteString(" " + op.Op + " " + ExprString(op.Right))
		}
		return b.String() + ")"
	case *ArithExpr:
		return "(" + ExprString(t.Left) + " " + t.Op + " " + ExprString(t.Right) + ")"
	case *ListExpr:
		items := make([]string, len(t.Items))
		for i, item := range t.Items {
			items[i] = ExprString(item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case *DictExpr:
		items := make([]string, len(t.Items))
		for i, item := range t.Items {
			items[i] = ExprString(item.Key) + ": " + ExprString(item.Value)
		}
		return "{" + strings.Join(items, ", ") + "}"
	case *RangeExpr:
		var b strings.Builder
		if t.Start != nil {
			b.WriteString(ExprString(t.Start))
		}
		b.WriteString("..")
		if t.End != nil {
			b.WriteString(ExprString(t.End))
		}
		return b.String()
	}
	return "?"
}
