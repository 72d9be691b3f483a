package operators

type Operator string

const (
	// Comparison

	OperatorEq  Operator = "="
	OperatorNe  Operator = "!="
	OperatorLt  Operator = "<"
	OperatorLte Operator = "<="
	OperatorGt  Operator = ">"
	OperatorGte Operator = ">="

	// Logical operators

	OperatorAnd Operator = "AND"
	OperatorOr  Operator = "OR"
	OperatorNot Operator = "NOT"

	// Mathematical

	OperatorAdd Operator = "+"
	OperatorSub Operator = "-"
	OperatorMul Operator = "*"
	OperatorDiv Operator = "/"

	// Text

	OperatorConcat Operator = "&"
)

func (o Operator) IsComparison() bool {
	switch o {
	case OperatorEq, OperatorNe, OperatorLt, OperatorLte, OperatorGt, OperatorGte:
		return true
	}
	return false
}
