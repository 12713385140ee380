package procurement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/periods"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetPR(ctx context.Context, reqID int64) (PRHeader, error)
	ListPRs(ctx context.Context, filter PRFilter) ([]PRHeader, error)
	ListApprovedPRs(ctx context.Context) ([]ApprovedPRSummary, error)
	GetPO(ctx context.Context, poID int64) (POHeader, error)
	ListPOs(ctx context.Context, filter POFilter) ([]POHeader, error)
}

// LedgerPort reads current stock for requisition line snapshots.
type LedgerPort interface {
	CurrentStock(ctx context.Context, itemID, warehouseID int64) (float64, error)
}

// PeriodPort resolves the posting period gate for document dates.
type PeriodPort interface {
	ResolvePostingPeriod(ctx context.Context, date time.Time) (periods.Period, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates requisition and order workflows.
type Service struct {
	repo    RepositoryPort
	ledger  LedgerPort
	periods PeriodPort
	audit   AuditPort
	now     func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, ledger LedgerPort, periodSvc PeriodPort, audit AuditPort) *Service {
	return &Service{repo: repo, ledger: ledger, periods: periodSvc, audit: audit, now: time.Now}
}

// prValidityDays is added to the posting date to derive valid_dt.
const prValidityDays = 30

func generateNumber(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func validateLineNumbers(lineNos []int) error {
	if len(lineNos) == 0 {
		return fmt.Errorf("%w: at least one row is required", ErrValidation)
	}
	seen := make(map[int]bool, len(lineNos))
	for _, n := range lineNos {
		if n < 1 || n > len(lineNos) {
			return fmt.Errorf("%w: line numbers must form a contiguous 1..%d sequence", ErrValidation, len(lineNos))
		}
		if seen[n] {
			return fmt.Errorf("%w: duplicate line number %d", ErrValidation, n)
		}
		seen[n] = true
	}
	return nil
}

func validatePRRows(rows []PRRowInput) error {
	lineNos := make([]int, 0, len(rows))
	for _, row := range rows {
		lineNos = append(lineNos, row.LineNo)
		if row.ItemID == 0 {
			return fmt.Errorf("%w: item is required on every row", ErrValidation)
		}
		if row.ReqQty <= 0 {
			return fmt.Errorf("%w: requested quantity must be positive", ErrValidation)
		}
	}
	return validateLineNumbers(lineNos)
}

func validatePORows(rows []PORowInput) error {
	lineNos := make([]int, 0, len(rows))
	for _, row := range rows {
		lineNos = append(lineNos, row.LineNo)
		if row.ItemID == 0 {
			return fmt.Errorf("%w: item is required on every row", ErrValidation)
		}
		if row.ReqQty <= 0 {
			return fmt.Errorf("%w: requested quantity must be positive", ErrValidation)
		}
		if row.UnitPrice < 0 || row.DiscountPercent < 0 || row.DiscountPercent > 100 {
			return fmt.Errorf("%w: invalid pricing on line %d", ErrValidation, row.LineNo)
		}
	}
	return validateLineNumbers(lineNos)
}

func (s *Service) resolvePeriod(ctx context.Context, date time.Time) (periods.Period, error) {
	period, err := s.periods.ResolvePostingPeriod(ctx, date)
	if err != nil {
		if errors.Is(err, periods.ErrPostingClosed) {
			return periods.Period{}, fmt.Errorf("%w: no open posting period for %s", ErrValidation, date.Format("2006-01-02"))
		}
		return periods.Period{}, err
	}
	return period, nil
}

// CreatePR creates a requisition. Every line snapshots the item's
// current stock from the ledger at creation time.
func (s *Service) CreatePR(ctx context.Context, input CreatePRInput) (PRHeader, error) {
	if input.EmpCode == "" {
		return PRHeader{}, fmt.Errorf("%w: emp_code is required", ErrValidation)
	}
	if err := validatePRRows(input.Rows); err != nil {
		return PRHeader{}, err
	}
	postDate := input.PostDate
	if postDate.IsZero() {
		postDate = s.now()
	}
	docDate := input.DocDate
	if docDate.IsZero() {
		docDate = postDate
	}
	period, err := s.resolvePeriod(ctx, postDate)
	if err != nil {
		return PRHeader{}, err
	}

	var reqID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		emp, err := tx.EmployeeByCode(ctx, input.EmpCode)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: employee %s", ErrNotFound, input.EmpCode)
			}
			return err
		}
		header := PRHeader{
			ReqNo:     generateNumber("PR"),
			PostPer:   period.PeriodCode,
			EmpCode:   emp.EmpCode,
			EmpName:   emp.EmpName,
			EmpDept:   emp.DeptName,
			PostDate:  postDate,
			ValidDate: postDate.AddDate(0, 0, prValidityDays),
			DocDate:   docDate,
			Status:    PRStatusPending,
			Priority:  input.Priority,
			Remarks:   input.Remarks,
			CreatedBy: input.CreatedBy,
		}
		reqID, err = tx.InsertPRHeader(ctx, header)
		if err != nil {
			return err
		}
		rows, err := s.buildPRRows(ctx, tx, input.Rows, input.CreatedBy)
		if err != nil {
			return err
		}
		return tx.InsertPRRows(ctx, reqID, rows)
	})
	if err != nil {
		return PRHeader{}, err
	}
	s.recordAudit(ctx, "procurement:pr_create", "pur_req_header", reqID, nil)
	return s.repo.GetPR(ctx, reqID)
}

func (s *Service) buildPRRows(ctx context.Context, tx TxRepository, inputs []PRRowInput, createdBy string) ([]PRRow, error) {
	rows := make([]PRRow, 0, len(inputs))
	for _, in := range inputs {
		item, err := tx.ItemByID(ctx, in.ItemID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("%w: item %d", ErrNotFound, in.ItemID)
			}
			return nil, err
		}
		stock, err := s.ledger.CurrentStock(ctx, in.ItemID, 0)
		if err != nil {
			return nil, err
		}
		rows = append(rows, PRRow{
			LineNo:       in.LineNo,
			ItemID:       item.ItemID,
			ItemCode:     item.ItemCode,
			ItemName:     item.ItemName,
			ItemDetails:  item.ItemDetails,
			ItemHSN:      item.ItemHSN,
			NeedDate:     in.NeedDate,
			CurrentStock: stock,
			ReqQty:       in.ReqQty,
			CreatedBy:    createdBy,
		})
	}
	return rows, nil
}

// UpdatePRInput carries fields for rewriting a requisition.
type UpdatePRInput struct {
	EmpCode   string
	PostDate  time.Time
	DocDate   time.Time
	Priority  string
	Remarks   string
	UpdatedBy string
	Rows      []PRRowInput
}

// UpdatePR rewrites a requisition. Rows are wholly replaced; row
// identity is not preserved and stock snapshots are taken fresh.
func (s *Service) UpdatePR(ctx context.Context, reqID int64, input UpdatePRInput) (PRHeader, error) {
	if input.EmpCode == "" {
		return PRHeader{}, fmt.Errorf("%w: emp_code is required", ErrValidation)
	}
	if err := validatePRRows(input.Rows); err != nil {
		return PRHeader{}, err
	}
	existing, err := s.repo.GetPR(ctx, reqID)
	if err != nil {
		return PRHeader{}, err
	}
	postDate := input.PostDate
	if postDate.IsZero() {
		postDate = existing.PostDate
	}
	docDate := input.DocDate
	if docDate.IsZero() {
		docDate = postDate
	}
	period, err := s.resolvePeriod(ctx, postDate)
	if err != nil {
		return PRHeader{}, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		emp, err := tx.EmployeeByCode(ctx, input.EmpCode)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: employee %s", ErrNotFound, input.EmpCode)
			}
			return err
		}
		header := existing
		header.PostPer = period.PeriodCode
		header.EmpCode = emp.EmpCode
		header.EmpName = emp.EmpName
		header.EmpDept = emp.DeptName
		header.PostDate = postDate
		header.ValidDate = postDate.AddDate(0, 0, prValidityDays)
		header.DocDate = docDate
		header.Priority = input.Priority
		header.Remarks = input.Remarks
		header.UpdatedBy = input.UpdatedBy
		if err := tx.UpdatePRHeader(ctx, header); err != nil {
			return err
		}
		if err := tx.DeletePRRows(ctx, reqID); err != nil {
			return err
		}
		rows, err := s.buildPRRows(ctx, tx, input.Rows, input.UpdatedBy)
		if err != nil {
			return err
		}
		return tx.InsertPRRows(ctx, reqID, rows)
	})
	if err != nil {
		return PRHeader{}, err
	}
	s.recordAudit(ctx, "procurement:pr_update", "pur_req_header", reqID, nil)
	return s.repo.GetPR(ctx, reqID)
}

// SetPRStatus sets a requisition status. Any member of the status set
// is reachable from any other; no transition graph is enforced here.
func (s *Service) SetPRStatus(ctx context.Context, reqID int64, status PRStatus, updatedBy string) (PRHeader, error) {
	if !status.Valid() {
		return PRHeader{}, fmt.Errorf("%w: unknown req_status %q", ErrValidation, status)
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdatePRStatus(ctx, reqID, status, updatedBy)
	})
	if err != nil {
		return PRHeader{}, err
	}
	s.recordAudit(ctx, "procurement:pr_status", "pur_req_header", reqID, map[string]any{"req_status": status})
	return s.repo.GetPR(ctx, reqID)
}

// DeletePR removes a requisition and its rows.
func (s *Service) DeletePR(ctx context.Context, reqID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.DeletePR(ctx, reqID)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "procurement:pr_delete", "pur_req_header", reqID, nil)
	return nil
}

// GetPR loads one requisition with rows.
func (s *Service) GetPR(ctx context.Context, reqID int64) (PRHeader, error) {
	return s.repo.GetPR(ctx, reqID)
}

// ListPRs returns filtered requisition headers.
func (s *Service) ListPRs(ctx context.Context, filter PRFilter) ([]PRHeader, error) {
	return s.repo.ListPRs(ctx, filter)
}

// ListApprovedPRs returns approved requisitions with row aggregates.
func (s *Service) ListApprovedPRs(ctx context.Context) ([]ApprovedPRSummary, error) {
	return s.repo.ListApprovedPRs(ctx)
}

type poAmounts struct {
	subtotal    float64
	discountAmt float64
	taxAmt      float64
}

func (s *Service) buildPORows(ctx context.Context, tx TxRepository, inputs []PORowInput, createdBy string) ([]PORow, poAmounts, error) {
	rows := make([]PORow, 0, len(inputs))
	var totals poAmounts
	for _, in := range inputs {
		item, err := tx.ItemByID(ctx, in.ItemID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, poAmounts{}, fmt.Errorf("%w: item %d", ErrNotFound, in.ItemID)
			}
			return nil, poAmounts{}, err
		}
		if in.UOMID != 0 {
			ok, err := tx.UOMExists(ctx, in.UOMID)
			if err != nil {
				return nil, poAmounts{}, err
			}
			if !ok {
				return nil, poAmounts{}, fmt.Errorf("%w: uom %d", ErrNotFound, in.UOMID)
			}
		}
		if in.WarehouseID != 0 {
			ok, err := tx.WarehouseExists(ctx, in.WarehouseID)
			if err != nil {
				return nil, poAmounts{}, err
			}
			if !ok {
				return nil, poAmounts{}, fmt.Errorf("%w: warehouse %d", ErrNotFound, in.WarehouseID)
			}
		}
		var taxRate float64
		if in.TaxCode != "" {
			tax, err := tx.TaxByCode(ctx, in.TaxCode)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return nil, poAmounts{}, fmt.Errorf("%w: tax code %s", ErrNotFound, in.TaxCode)
				}
				return nil, poAmounts{}, err
			}
			taxRate = tax.Rate
		}

		gross := in.ReqQty * in.UnitPrice
		discountAmt := gross * in.DiscountPercent / 100
		taxable := gross - discountAmt
		taxAmt := taxable * taxRate / 100
		lineTotal := taxable + taxAmt

		totals.subtotal += gross
		totals.discountAmt += discountAmt
		totals.taxAmt += taxAmt

		rows = append(rows, PORow{
			LineNo:          in.LineNo,
			ItemID:          item.ItemID,
			ItemCode:        item.ItemCode,
			ItemName:        item.ItemName,
			ItemDetails:     item.ItemDetails,
			HSNCode:         item.ItemHSN,
			UOMID:           in.UOMID,
			ReqQty:          in.ReqQty,
			NeedDate:        in.NeedDate,
			UnitPrice:       in.UnitPrice,
			DiscountPercent: in.DiscountPercent,
			DiscountAmt:     discountAmt,
			TaxCode:         in.TaxCode,
			TaxRate:         taxRate,
			TaxAmt:          taxAmt,
			LineTotal:       lineTotal,
			WarehouseID:     in.WarehouseID,
			CreatedBy:       createdBy,
		})
	}
	return rows, totals, nil
}

// CreatePO creates an order directly with computed monetary totals.
func (s *Service) CreatePO(ctx context.Context, input CreatePOInput) (POHeader, error) {
	if input.BPCode == "" {
		return POHeader{}, fmt.Errorf("%w: bpcode is required", ErrValidation)
	}
	if err := validatePORows(input.Rows); err != nil {
		return POHeader{}, err
	}
	postDate := input.PostDate
	if postDate.IsZero() {
		postDate = s.now()
	}
	docDate := input.DocDate
	if docDate.IsZero() {
		docDate = postDate
	}
	period, err := s.resolvePeriod(ctx, postDate)
	if err != nil {
		return POHeader{}, err
	}

	var poID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		vendor, err := tx.VendorByCode(ctx, input.BPCode)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: vendor %s", ErrNotFound, input.BPCode)
			}
			return err
		}
		header := POHeader{
			PONo:      generateNumber("PO"),
			PostPer:   period.PeriodCode,
			PostDate:  postDate,
			DocDate:   docDate,
			BPCode:    vendor.BPCode,
			BPName:    vendor.BPName,
			Status:    POStatusOpen,
			Remarks:   input.Remarks,
			CreatedBy: input.CreatedBy,
		}
		if input.EmpCode != "" {
			emp, err := tx.EmployeeByCode(ctx, input.EmpCode)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return fmt.Errorf("%w: employee %s", ErrNotFound, input.EmpCode)
				}
				return err
			}
			header.EmpCode = emp.EmpCode
			header.EmpName = emp.EmpName
			header.DeptID = emp.DeptID
		}
		rows, totals, err := s.buildPORows(ctx, tx, input.Rows, input.CreatedBy)
		if err != nil {
			return err
		}
		header.Subtotal = totals.subtotal
		header.DiscountAmt = totals.discountAmt
		header.TaxAmt = totals.taxAmt
		header.TotalAmt = totals.subtotal - totals.discountAmt + totals.taxAmt
		poID, err = tx.InsertPOHeader(ctx, header)
		if err != nil {
			return err
		}
		return tx.InsertPORows(ctx, poID, rows)
	})
	if err != nil {
		return POHeader{}, err
	}
	s.recordAudit(ctx, "procurement:po_create", "pur_ord_header", poID, nil)
	return s.repo.GetPO(ctx, poID)
}

// UpdatePOInput carries fields for rewriting an order.
type UpdatePOInput struct {
	BPCode    string
	EmpCode   string
	PostDate  time.Time
	DocDate   time.Time
	Remarks   string
	UpdatedBy string
	Rows      []PORowInput
}

// UpdatePO rewrites an open order. Closed orders refuse the update.
func (s *Service) UpdatePO(ctx context.Context, poID int64, input UpdatePOInput) (POHeader, error) {
	if input.BPCode == "" {
		return POHeader{}, fmt.Errorf("%w: bpcode is required", ErrValidation)
	}
	if err := validatePORows(input.Rows); err != nil {
		return POHeader{}, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.POHeaderForUpdate(ctx, poID)
		if err != nil {
			return err
		}
		if existing.Status == POStatusClosed {
			return ErrPOClosed
		}
		postDate := input.PostDate
		if postDate.IsZero() {
			postDate = existing.PostDate
		}
		docDate := input.DocDate
		if docDate.IsZero() {
			docDate = postDate
		}
		period, err := s.resolvePeriod(ctx, postDate)
		if err != nil {
			return err
		}
		vendor, err := tx.VendorByCode(ctx, input.BPCode)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: vendor %s", ErrNotFound, input.BPCode)
			}
			return err
		}
		header := existing
		header.PostPer = period.PeriodCode
		header.PostDate = postDate
		header.DocDate = docDate
		header.BPCode = vendor.BPCode
		header.BPName = vendor.BPName
		header.Remarks = input.Remarks
		header.UpdatedBy = input.UpdatedBy
		if input.EmpCode != "" {
			emp, err := tx.EmployeeByCode(ctx, input.EmpCode)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return fmt.Errorf("%w: employee %s", ErrNotFound, input.EmpCode)
				}
				return err
			}
			header.EmpCode = emp.EmpCode
			header.EmpName = emp.EmpName
			header.DeptID = emp.DeptID
		}
		rows, totals, err := s.buildPORows(ctx, tx, input.Rows, input.UpdatedBy)
		if err != nil {
			return err
		}
		header.Subtotal = totals.subtotal
		header.DiscountAmt = totals.discountAmt
		header.TaxAmt = totals.taxAmt
		header.TotalAmt = totals.subtotal - totals.discountAmt + totals.taxAmt
		if err := tx.UpdatePOHeader(ctx, header); err != nil {
			return err
		}
		if err := tx.DeletePORows(ctx, poID); err != nil {
			return err
		}
		return tx.InsertPORows(ctx, poID, rows)
	})
	if err != nil {
		return POHeader{}, err
	}
	s.recordAudit(ctx, "procurement:po_update", "pur_ord_header", poID, nil)
	return s.repo.GetPO(ctx, poID)
}

// SetPOStatus sets an order status from the two-state enum.
func (s *Service) SetPOStatus(ctx context.Context, poID int64, status POStatus, updatedBy string) (POHeader, error) {
	if !status.Valid() {
		return POHeader{}, fmt.Errorf("%w: unknown po_status %q", ErrValidation, status)
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdatePOStatus(ctx, poID, status, updatedBy)
	})
	if err != nil {
		return POHeader{}, err
	}
	s.recordAudit(ctx, "procurement:po_status", "pur_ord_header", poID, map[string]any{"po_status": status})
	return s.repo.GetPO(ctx, poID)
}

// DeletePO removes an open order and its rows. Closed orders refuse
// the delete.
func (s *Service) DeletePO(ctx context.Context, poID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.POHeaderForUpdate(ctx, poID)
		if err != nil {
			return err
		}
		if existing.Status == POStatusClosed {
			return ErrPOClosed
		}
		return tx.DeletePO(ctx, poID)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "procurement:po_delete", "pur_ord_header", poID, nil)
	return nil
}

// GetPO loads one order with rows.
func (s *Service) GetPO(ctx context.Context, poID int64) (POHeader, error) {
	return s.repo.GetPO(ctx, poID)
}

// ListPOs returns filtered order headers.
func (s *Service) ListPOs(ctx context.Context, filter POFilter) ([]POHeader, error) {
	return s.repo.ListPOs(ctx, filter)
}

// ConvertFromPRs converts approved requisitions into one order inside
// a single transaction. Either every requisition converts and the
// order exists, or nothing changes. Merged rows are renumbered 1..N
// and pricing is left at zero pending manual entry.
func (s *Service) ConvertFromPRs(ctx context.Context, input ConvertInput) (POHeader, error) {
	if len(input.ReqIDs) == 0 {
		return POHeader{}, fmt.Errorf("%w: at least one requisition id is required", ErrValidation)
	}
	if input.BPCode == "" {
		return POHeader{}, fmt.Errorf("%w: bpcode is required", ErrValidation)
	}
	postDate := input.PostDate
	if postDate.IsZero() {
		postDate = s.now()
	}
	docDate := input.DocDate
	if docDate.IsZero() {
		docDate = postDate
	}
	period, err := s.resolvePeriod(ctx, postDate)
	if err != nil {
		return POHeader{}, err
	}

	var poID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		vendor, err := tx.VendorByCode(ctx, input.BPCode)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: vendor %s not found", ErrValidation, input.BPCode)
			}
			return err
		}
		header := POHeader{
			PONo:      generateNumber("PO"),
			PostPer:   period.PeriodCode,
			PostDate:  postDate,
			DocDate:   docDate,
			BPCode:    vendor.BPCode,
			BPName:    vendor.BPName,
			Status:    POStatusOpen,
			CreatedBy: input.CreatedBy,
		}
		rows := []PORow{}
		lineNo := 0
		for i, reqID := range input.ReqIDs {
			pr, err := tx.ApprovedPRWithRows(ctx, reqID)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return fmt.Errorf("%w: requisition %d not found or not approved", ErrValidation, reqID)
				}
				return err
			}
			if i == 0 {
				header.EmpCode = pr.EmpCode
				header.EmpName = pr.EmpName
				if emp, err := tx.EmployeeByCode(ctx, pr.EmpCode); err == nil {
					header.DeptID = emp.DeptID
				}
			}
			for _, prRow := range pr.Rows {
				lineNo++
				rows = append(rows, PORow{
					LineNo:      lineNo,
					ItemID:      prRow.ItemID,
					ItemCode:    prRow.ItemCode,
					ItemName:    prRow.ItemName,
					ItemDetails: prRow.ItemDetails,
					HSNCode:     prRow.ItemHSN,
					ReqQty:      prRow.ReqQty,
					NeedDate:    prRow.NeedDate,
					PRReqID:     pr.ReqID,
					PRLineNo:    prRow.LineNo,
					PRNo:        pr.ReqNo,
					CreatedBy:   input.CreatedBy,
				})
			}
		}
		poID, err = tx.InsertPOHeader(ctx, header)
		if err != nil {
			return err
		}
		if err := tx.InsertPORows(ctx, poID, rows); err != nil {
			return err
		}
		for _, reqID := range input.ReqIDs {
			if err := tx.UpdatePRStatus(ctx, reqID, PRStatusConverted, input.CreatedBy); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return POHeader{}, err
	}
	s.recordAudit(ctx, "procurement:po_convert", "pur_ord_header", poID, map[string]any{"req_ids": input.ReqIDs})
	return s.repo.GetPO(ctx, poID)
}

func (s *Service) recordAudit(ctx context.Context, action, entity string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   entity,
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
	})
}
