package logprob

import (
	"fmt"
	"math"
)

// LogDouble is a non-negative number stored as its natural logarithm.
type LogDouble float64

var (
	One  = LogDouble(0)
	Zero = LogDouble(math.Inf(-1))
)

func FromFloat(x float64) LogDouble {
	if x < 0 {
		panic(fmt.Errorf("negative value for log double: %v", x))
	}
	return LogDouble(math.Log(x))
}

func FromLog(l float64) LogDouble {
	return LogDouble(l)
}

func (l LogDouble) Log() float64 {
	return float64(l)
}

func (l LogDouble) Float() float64 {
	return math.Exp(float64(l))
}

func (l LogDouble) Mul(r LogDouble) LogDouble {
	return l + r
}

func (l LogDouble) Div(r LogDouble) LogDouble {
	if r == Zero {
		panic(fmt.Errorf("division of log double by zero"))
	}
	return l - r
}

func (l LogDouble) Pow(y float64) LogDouble {
	if l == Zero {
		return Zero
	}
	return LogDouble(float64(l) * y)
}

func (l LogDouble) IsZero() bool {
	return math.IsInf(float64(l), -1)
}

func (l LogDouble) String() string {
	return fmt.Sprintf("exp(%g)", float64(l))
}
