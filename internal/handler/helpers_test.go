package handler

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/dafibh/lunas/lunas-backend/internal/domain"
	"github.com/dafibh/lunas/lunas-backend/internal/middleware"
	"github.com/dafibh/lunas/lunas-backend/internal/service"
	"github.com/dafibh/lunas/lunas-backend/internal/testutil"
	"github.com/dafibh/lunas/lunas-backend/internal/util"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const testOwnerID = "auth0|borrower"

// setupOwnerContext injects the authenticated owner into the request context
func setupOwnerContext(c echo.Context, ownerID string) {
	ctx := context.WithValue(c.Request().Context(), middleware.OwnerIDKey, ownerID)
	c.SetRequest(c.Request().WithContext(ctx))
}

type handlerFixture struct {
	loans   *testutil.MockLoanRepository
	ledgers *testutil.MockLedgerRepository
	proofs  *testutil.MockProofRepository
	loan    *LoanHandler
	payment *LoanPaymentHandler
}

func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		loans:   testutil.NewMockLoanRepository(),
		ledgers: testutil.NewMockLedgerRepository(),
		proofs:  testutil.NewMockProofRepository(),
	}
	loanService := service.NewLoanService(f.loans)
	repaymentService := service.NewRepaymentService(f.loans, f.ledgers, service.NewProofService(f.proofs, time.Minute))
	f.loan = NewLoanHandler(loanService, repaymentService)
	f.payment = NewLoanPaymentHandler(repaymentService)
	return f
}

func (f *handlerFixture) addInstallmentLoan(principal int64, count int) uuid.UUID {
	loan := &domain.Loan{
		ID:      uuid.New(),
		OwnerID: testOwnerID,
		Title:   "Laptop",
		Terms: domain.LoanTerms{
			Principal:        principal,
			Plan:             domain.Installment{Count: count},
			DisbursementDate: util.NewDate(2026, time.January, 10),
		},
	}
	f.loans.AddLoan(loan)
	return loan.ID
}

// testProofPNG returns a small valid proof image
func testProofPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 150, 150))
	for y := 0; y < 150; y++ {
		for x := 0; x < 150; x++ {
			img.Set(x, y, color.RGBA{R: 20, G: 200, B: 20, A: 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

// newMultipartRequest builds a multipart payment submission
func newMultipartRequest(path string, fields map[string]string, proof []byte) *http.Request {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		w.WriteField(k, v)
	}
	if proof != nil {
		part, _ := w.CreateFormFile("proof", "receipt.png")
		part.Write(proof)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}
