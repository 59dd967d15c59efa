package services

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"wecount/internal/models"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

// PaymentService opens and tracks gateway checkouts for executing pending
// reimbursements. The settlement math never depends on it; a completed
// checkout only flips the reimbursement's status through the normal
// transition rules.
type PaymentService struct {
	db             *gorm.DB
	midtransClient *MidtransService
}

func NewPaymentService(db *gorm.DB, midtransClient *MidtransService) *PaymentService {
	return &PaymentService{
		db:             db,
		midtransClient: midtransClient,
	}
}

// CheckActiveSession returns the newest active session for a reimbursement,
// or nil when there is none.
func (s *PaymentService) CheckActiveSession(reimbursementID uint) (*models.PaymentSession, error) {
	var existingSession models.PaymentSession
	err := s.db.Where("reimbursement_id = ? AND is_active = ?", reimbursementID, true).Order("created_at desc").First(&existingSession).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &existingSession, nil
}

// InitiatePaymentResult holds the result of an initiation attempt
type InitiatePaymentResult struct {
	Token       string
	RedirectURL string
	IsExisting  bool
}

// InitiatePayment starts or resumes a checkout for a pending reimbursement.
// An existing pending session is reused unless forceNew cancels it first;
// sessions whose gateway status turned terminal are deactivated and replaced.
func (s *PaymentService) InitiatePayment(r *models.Reimbursement, payer *models.User, forceNew bool, callbackURL string) (*InitiatePaymentResult, error) {
	if r.Status != models.ReimbursementStatusPending {
		return nil, fmt.Errorf("reimbursement %d is %s, only pending ones can be paid", r.ID, r.Status)
	}

	existingSession, err := s.CheckActiveSession(r.ID)
	if err != nil {
		return nil, err
	}

	if existingSession != nil {
		statusResp, err := s.midtransClient.CheckTransaction(existingSession.OrderID)
		if err == nil {
			if statusResp.TransactionStatus == "settlement" || statusResp.TransactionStatus == "capture" {
				return nil, fmt.Errorf("payment already made")
			}

			if statusResp.TransactionStatus == "deny" || statusResp.TransactionStatus == "expire" || statusResp.TransactionStatus == "cancel" || statusResp.TransactionStatus == "failure" {
				existingSession.IsActive = false
				s.db.Save(existingSession)
			} else {
				if forceNew {
					s.midtransClient.CancelTransaction(existingSession.OrderID)
					existingSession.IsActive = false
					s.db.Save(existingSession)
				} else {
					var midtransResp snap.Response
					if err := json.Unmarshal(existingSession.ResponseMetadata, &midtransResp); err == nil {
						return &InitiatePaymentResult{
							Token:       midtransResp.Token,
							RedirectURL: midtransResp.RedirectURL,
							IsExisting:  true,
						}, nil
					}
					// Unrecoverable session metadata, start over.
					existingSession.IsActive = false
					s.db.Save(existingSession)
				}
			}
		} else {
			existingSession.IsActive = false
			s.db.Save(existingSession)
		}
	}

	orderID := fmt.Sprintf("reimbursement-%d-%d", r.ID, time.Now().Unix())

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: int64(r.Amount),
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: payer.Name,
			Email: payer.Email,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    fmt.Sprintf("reimbursement-%d", r.ID),
				Name:  fmt.Sprintf("Repayment to %s", r.ToParticipant.Name),
				Price: int64(r.Amount),
				Qty:   1,
			},
		},
		Callbacks: &snap.Callbacks{
			Finish: callbackURL,
		},
	}

	resp, err := s.midtransClient.CreateTransaction(orderID, int64(r.Amount), req)
	if err != nil {
		return nil, err
	}

	reqBytes, _ := json.Marshal(req)
	respBytes, _ := json.Marshal(resp)

	session := models.PaymentSession{
		EventID:          r.EventID,
		ReimbursementID:  r.ID,
		UserID:           payer.ID,
		PaymentGateway:   models.PaymentGatewayMidtrans,
		OrderID:          orderID,
		IsActive:         true,
		RequestMetadata:  reqBytes,
		ResponseMetadata: respBytes,
	}
	s.db.Create(&session)

	return &InitiatePaymentResult{
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
		IsExisting:  false,
	}, nil
}
