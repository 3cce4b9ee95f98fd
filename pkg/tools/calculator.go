package tools

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	CalculatorName = "financial_calculator"

	calculatorUsage = "Usage: cagr <initial_value> <final_value> <years> (e.g. cagr 1000 1300 3); " +
		"roi <initial_value> <final_value>; npv <rate_percent> <cf0> <cf1> ..."
)

// NewCalculator returns the financial_calculator tool.
func NewCalculator() Tool {
	return NewFunc(CalculatorName,
		"Basic financial calculations. Commands: 'cagr <v0> <v1> <years>' (alias 'cag'), "+
			"'roi <v0> <v1>', 'npv <rate%> <cf0> <cf1> ...'. Returns percentages with 4 decimals.",
		func(_ context.Context, input string) Result {
			return Calculate(input)
		})
}

// Calculate evaluates one calculator command.
func Calculate(input string) Result {
	fields := Fields(input)
	if len(fields) == 0 {
		return Fail("Empty command. " + calculatorUsage)
	}

	cmd := strings.ToLower(fields[0])
	args, err := parseNumbers(fields[1:])
	if err != nil {
		return Fail(fmt.Sprintf("Invalid parameters: %v. %s", err, calculatorUsage))
	}

	switch cmd {
	case "cagr", "cag":
		if len(args) != 3 {
			return Fail(calculatorUsage)
		}
		v, err := CAGR(args[0], args[1], args[2])
		if err != nil {
			return Fail("Error: " + err.Error())
		}
		if !finite(v) {
			return Fail("Error: the result is out of range.")
		}
		return OK(fmt.Sprintf("CAGR = %s (from %g to %g over %g years)", FormatPercent(v), args[0], args[1], args[2]))
	case "roi":
		if len(args) != 2 {
			return Fail(calculatorUsage)
		}
		if args[0] <= 0 {
			return Fail("Error: initial value must be strictly positive.")
		}
		v := args[1]/args[0] - 1
		if !finite(v) {
			return Fail("Error: the result is out of range.")
		}
		return OK(fmt.Sprintf("ROI = %s (from %g to %g)", FormatPercent(v), args[0], args[1]))
	case "npv":
		if len(args) < 2 {
			return Fail(calculatorUsage)
		}
		v, err := NPV(args[0]/100, args[1:])
		if err != nil {
			return Fail("Error: " + err.Error())
		}
		return OK(fmt.Sprintf("NPV = %.2f (rate %g%%, %d cash flows)", v, args[0], len(args)-1))
	default:
		return Fail(fmt.Sprintf("Unknown command %q. %s", cmd, calculatorUsage))
	}
}

// CAGR is (v1/v0)^(1/years) - 1. All inputs must be strictly positive.
func CAGR(v0, v1, years float64) (float64, error) {
	if v0 <= 0 || v1 <= 0 || years <= 0 {
		return 0, fmt.Errorf("all values must be strictly positive (got v0=%g, v1=%g, years=%g)", v0, v1, years)
	}
	if !finite(v0) || !finite(v1) || !finite(years) {
		return 0, fmt.Errorf("values must be finite numbers")
	}
	return math.Pow(v1/v0, 1/years) - 1, nil
}

// NPV discounts cashFlows at rate; cashFlows[0] occurs at t=0. The rate must
// be above -100%.
func NPV(rate float64, cashFlows []float64) (float64, error) {
	if rate <= -1 {
		return 0, fmt.Errorf("rate must be greater than -100%% (got %g%%)", rate*100)
	}
	var total float64
	for t, cf := range cashFlows {
		total += cf / math.Pow(1+rate, float64(t))
	}
	if !finite(total) {
		return 0, fmt.Errorf("the result is out of range")
	}
	return total, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FormatPercent renders a ratio as a percentage with four decimals.
func FormatPercent(ratio float64) string {
	return strconv.FormatFloat(ratio*100, 'f', 4, 64) + "%"
}

func parseNumbers(fields []string) ([]float64, error) {
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSuffix(strings.TrimPrefix(f, "$"), "%")
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || !finite(v) {
			return nil, fmt.Errorf("%q is not a number", f)
		}
		out = append(out, v)
	}
	return out, nil
}
