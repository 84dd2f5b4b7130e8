package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"loanease/internal/usecase/calculator"
)

type quoteResp struct {
	LoanAmount     float64 `json:"loan_amount"`
	InterestRate   float64 `json:"interest_rate"`
	LoanTermMonths int     `json:"loan_term_months"`
	MonthlyPayment float64 `json:"monthly_payment"`
	TotalPayment   float64 `json:"total_payment"`
	TotalInterest  float64 `json:"total_interest"`
}

func (h *Handler) Calculator(c echo.Context) error {
	amount, err1 := strconv.ParseFloat(c.QueryParam("amount"), 64)
	rate, err2 := strconv.ParseFloat(c.QueryParam("rate"), 64)
	term, err3 := strconv.Atoi(c.QueryParam("term"))
	if err1 != nil || err2 != nil || err3 != nil {
		return badRequest(c, "amount, rate and term are required numbers")
	}
	q, err := calculator.Compute64(amount, rate, term)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, quoteResp{
		LoanAmount:     q.Amount.InexactFloat64(),
		InterestRate:   q.AnnualRatePct.InexactFloat64(),
		LoanTermMonths: q.TermMonths,
		MonthlyPayment: q.MonthlyPayment.InexactFloat64(),
		TotalPayment:   q.TotalPayment.InexactFloat64(),
		TotalInterest:  q.TotalInterest.InexactFloat64(),
	})
}
