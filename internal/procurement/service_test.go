package procurement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/periods"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryProcRepo struct {
	nextPR    int64
	nextPO    int64
	prHeaders map[int64]PRHeader
	prRows    map[int64][]PRRow
	poHeaders map[int64]POHeader
	poRows    map[int64][]PORow

	employees  map[string]Employee
	items      map[int64]Item
	vendors    map[string]Vendor
	taxes      map[string]TaxCode
	uoms       map[int64]bool
	warehouses map[int64]bool
}

func newMemoryProcRepo() *memoryProcRepo {
	return &memoryProcRepo{
		nextPR:     1,
		nextPO:     1,
		prHeaders:  map[int64]PRHeader{},
		prRows:     map[int64][]PRRow{},
		poHeaders:  map[int64]POHeader{},
		poRows:     map[int64][]PORow{},
		employees:  map[string]Employee{},
		items:      map[int64]Item{},
		vendors:    map[string]Vendor{},
		taxes:      map[string]TaxCode{},
		uoms:       map[int64]bool{},
		warehouses: map[int64]bool{},
	}
}

func (m *memoryProcRepo) snapshot() *memoryProcRepo {
	clone := newMemoryProcRepo()
	clone.nextPR = m.nextPR
	clone.nextPO = m.nextPO
	for k, v := range m.prHeaders {
		clone.prHeaders[k] = v
	}
	for k, v := range m.prRows {
		clone.prRows[k] = append([]PRRow{}, v...)
	}
	for k, v := range m.poHeaders {
		clone.poHeaders[k] = v
	}
	for k, v := range m.poRows {
		clone.poRows[k] = append([]PORow{}, v...)
	}
	return clone
}

// WithTx restores document state when the callback fails, mirroring a
// rolled-back database transaction.
func (m *memoryProcRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	saved := m.snapshot()
	if err := fn(ctx, m); err != nil {
		m.nextPR = saved.nextPR
		m.nextPO = saved.nextPO
		m.prHeaders = saved.prHeaders
		m.prRows = saved.prRows
		m.poHeaders = saved.poHeaders
		m.poRows = saved.poRows
		return err
	}
	return nil
}

func (m *memoryProcRepo) GetPR(_ context.Context, reqID int64) (PRHeader, error) {
	h, ok := m.prHeaders[reqID]
	if !ok {
		return PRHeader{}, ErrNotFound
	}
	h.Rows = append([]PRRow{}, m.prRows[reqID]...)
	return h, nil
}

func (m *memoryProcRepo) ListPRs(_ context.Context, filter PRFilter) ([]PRHeader, error) {
	out := []PRHeader{}
	for _, h := range m.prHeaders {
		if filter.Status != "" && h.Status != filter.Status {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

func (m *memoryProcRepo) ListApprovedPRs(_ context.Context) ([]ApprovedPRSummary, error) {
	out := []ApprovedPRSummary{}
	for id, h := range m.prHeaders {
		if h.Status != PRStatusApproved {
			continue
		}
		var qty float64
		for _, row := range m.prRows[id] {
			qty += row.ReqQty
		}
		out = append(out, ApprovedPRSummary{ReqID: id, ReqNo: h.ReqNo, EmpName: h.EmpName, PostDate: h.PostDate, ItemCount: len(m.prRows[id]), TotalQty: qty})
	}
	return out, nil
}

func (m *memoryProcRepo) GetPO(_ context.Context, poID int64) (POHeader, error) {
	h, ok := m.poHeaders[poID]
	if !ok {
		return POHeader{}, ErrNotFound
	}
	h.Rows = append([]PORow{}, m.poRows[poID]...)
	return h, nil
}

func (m *memoryProcRepo) ListPOs(_ context.Context, filter POFilter) ([]POHeader, error) {
	out := []POHeader{}
	for _, h := range m.poHeaders {
		if filter.Status != "" && h.Status != filter.Status {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

func (m *memoryProcRepo) EmployeeByCode(_ context.Context, code string) (Employee, error) {
	e, ok := m.employees[code]
	if !ok {
		return Employee{}, ErrNotFound
	}
	return e, nil
}

func (m *memoryProcRepo) ItemByID(_ context.Context, itemID int64) (Item, error) {
	item, ok := m.items[itemID]
	if !ok {
		return Item{}, ErrNotFound
	}
	return item, nil
}

func (m *memoryProcRepo) VendorByCode(_ context.Context, code string) (Vendor, error) {
	v, ok := m.vendors[code]
	if !ok {
		return Vendor{}, ErrNotFound
	}
	return v, nil
}

func (m *memoryProcRepo) TaxByCode(_ context.Context, code string) (TaxCode, error) {
	t, ok := m.taxes[code]
	if !ok {
		return TaxCode{}, ErrNotFound
	}
	return t, nil
}

func (m *memoryProcRepo) UOMExists(_ context.Context, uomID int64) (bool, error) {
	return m.uoms[uomID], nil
}

func (m *memoryProcRepo) WarehouseExists(_ context.Context, warehouseID int64) (bool, error) {
	return m.warehouses[warehouseID], nil
}

func (m *memoryProcRepo) InsertPRHeader(_ context.Context, h PRHeader) (int64, error) {
	h.ReqID = m.nextPR
	m.nextPR++
	m.prHeaders[h.ReqID] = h
	return h.ReqID, nil
}

func (m *memoryProcRepo) InsertPRRows(_ context.Context, reqID int64, rows []PRRow) error {
	for i := range rows {
		rows[i].ReqID = reqID
	}
	m.prRows[reqID] = append(m.prRows[reqID], rows...)
	return nil
}

func (m *memoryProcRepo) DeletePRRows(_ context.Context, reqID int64) error {
	delete(m.prRows, reqID)
	return nil
}

func (m *memoryProcRepo) UpdatePRHeader(_ context.Context, h PRHeader) error {
	existing, ok := m.prHeaders[h.ReqID]
	if !ok {
		return ErrNotFound
	}
	h.Status = existing.Status
	h.ReqNo = existing.ReqNo
	h.Rows = nil
	m.prHeaders[h.ReqID] = h
	return nil
}

func (m *memoryProcRepo) UpdatePRStatus(_ context.Context, reqID int64, status PRStatus, updatedBy string) error {
	h, ok := m.prHeaders[reqID]
	if !ok {
		return ErrNotFound
	}
	h.Status = status
	h.UpdatedBy = updatedBy
	m.prHeaders[reqID] = h
	return nil
}

func (m *memoryProcRepo) DeletePR(_ context.Context, reqID int64) error {
	if _, ok := m.prHeaders[reqID]; !ok {
		return ErrNotFound
	}
	delete(m.prHeaders, reqID)
	delete(m.prRows, reqID)
	return nil
}

func (m *memoryProcRepo) ApprovedPRWithRows(ctx context.Context, reqID int64) (PRHeader, error) {
	h, ok := m.prHeaders[reqID]
	if !ok || h.Status != PRStatusApproved {
		return PRHeader{}, ErrNotFound
	}
	h.Rows = append([]PRRow{}, m.prRows[reqID]...)
	return h, nil
}

func (m *memoryProcRepo) InsertPOHeader(_ context.Context, h POHeader) (int64, error) {
	h.POID = m.nextPO
	m.nextPO++
	m.poHeaders[h.POID] = h
	return h.POID, nil
}

func (m *memoryProcRepo) InsertPORows(_ context.Context, poID int64, rows []PORow) error {
	for i := range rows {
		rows[i].POID = poID
	}
	m.poRows[poID] = append(m.poRows[poID], rows...)
	return nil
}

func (m *memoryProcRepo) DeletePORows(_ context.Context, poID int64) error {
	delete(m.poRows, poID)
	return nil
}

func (m *memoryProcRepo) UpdatePOHeader(_ context.Context, h POHeader) error {
	existing, ok := m.poHeaders[h.POID]
	if !ok {
		return ErrNotFound
	}
	h.Status = existing.Status
	h.PONo = existing.PONo
	h.Rows = nil
	m.poHeaders[h.POID] = h
	return nil
}

func (m *memoryProcRepo) UpdatePOStatus(_ context.Context, poID int64, status POStatus, updatedBy string) error {
	h, ok := m.poHeaders[poID]
	if !ok {
		return ErrNotFound
	}
	h.Status = status
	h.UpdatedBy = updatedBy
	m.poHeaders[poID] = h
	return nil
}

func (m *memoryProcRepo) DeletePO(_ context.Context, poID int64) error {
	if _, ok := m.poHeaders[poID]; !ok {
		return ErrNotFound
	}
	delete(m.poHeaders, poID)
	delete(m.poRows, poID)
	return nil
}

func (m *memoryProcRepo) POHeaderForUpdate(_ context.Context, poID int64) (POHeader, error) {
	h, ok := m.poHeaders[poID]
	if !ok {
		return POHeader{}, ErrNotFound
	}
	return h, nil
}

type stubLedger struct {
	stock map[int64]float64
}

func (s *stubLedger) CurrentStock(_ context.Context, itemID, _ int64) (float64, error) {
	return s.stock[itemID], nil
}

type stubPeriods struct {
	closed bool
}

func (s *stubPeriods) ResolvePostingPeriod(_ context.Context, date time.Time) (periods.Period, error) {
	if s.closed {
		return periods.Period{}, periods.ErrPostingClosed
	}
	return periods.Period{PeriodID: 1, PeriodCode: "2026-01", Status: periods.StatusOpen, AllowPosting: true}, nil
}

type stubAudit struct {
	logs []shared.AuditLog
}

func (s *stubAudit) Record(_ context.Context, log shared.AuditLog) error {
	s.logs = append(s.logs, log)
	return nil
}

func seedMasters(repo *memoryProcRepo) {
	repo.employees["EMP-1"] = Employee{EmpCode: "EMP-1", EmpName: "Asha Rao", DeptID: 3, DeptName: "Stores"}
	repo.items[10] = Item{ItemID: 10, ItemCode: "IT-10", ItemName: "Bearing", ItemHSN: "8482"}
	repo.items[11] = Item{ItemID: 11, ItemCode: "IT-11", ItemName: "Shaft"}
	repo.items[12] = Item{ItemID: 12, ItemCode: "IT-12", ItemName: "Coupling"}
	repo.vendors["V-100"] = Vendor{BPCode: "V-100", BPName: "Precision Supplies"}
	repo.taxes["GST18"] = TaxCode{Code: "GST18", Rate: 18}
	repo.uoms[1] = true
	repo.warehouses[1] = true
}

func newProcService(repo *memoryProcRepo, ledger *stubLedger, gate *stubPeriods) *Service {
	if ledger == nil {
		ledger = &stubLedger{stock: map[int64]float64{}}
	}
	if gate == nil {
		gate = &stubPeriods{}
	}
	return NewService(repo, ledger, gate, &stubAudit{})
}

func prRowsInput(lineQty ...float64) []PRRowInput {
	rows := make([]PRRowInput, 0, len(lineQty))
	itemIDs := []int64{10, 11, 12}
	for i, qty := range lineQty {
		rows = append(rows, PRRowInput{LineNo: i + 1, ItemID: itemIDs[i%3], ReqQty: qty})
	}
	return rows
}

func TestCreatePRSnapshotsStockAndValidity(t *testing.T) {
	repo := newMemoryProcRepo()
	seedMasters(repo)
	ledger := &stubLedger{stock: map[int64]float64{10: 42, 11: 7}}
	svc := newProcService(repo, ledger, nil)
	ctx := context.Background()

	pr, err := svc.CreatePR(ctx, CreatePRInput{
		EmpCode:  "EMP-1",
		PostDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		Rows:     prRowsInput(4, 2),
	})
	require.NoError(t, err)
	require.Equal(t, PRStatusPending, pr.Status)
	require.Equal(t, "2026-01", pr.PostPer)
	require.Equal(t, "Asha Rao", pr.EmpName)
	require.Equal(t, "Stores", pr.EmpDept)
	require.Equal(t, pr.PostDate.AddDate(0, 0, 30), pr.ValidDate)
	require.Len(t, pr.Rows, 2)
	require.Equal(t, 42.0, pr.Rows[0].CurrentStock)
	require.Equal(t, 7.0, pr.Rows[1].CurrentStock)
	require.Equal(t, "IT-10", pr.Rows[0].ItemCode)
}

func TestCreatePRValidation(t *testing.T) {
	repo := newMemoryProcRepo()
	seedMasters(repo)
	svc := newProcService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.CreatePR(ctx, CreatePRInput{EmpCode: "EMP-1"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreatePR(ctx, CreatePRInput{EmpCode: "EMP-1", Rows: []PRRowInput{
		{LineNo: 1, ItemID: 10, ReqQty: 1},
		{LineNo: 3, ItemID: 11, ReqQty: 1},
	}})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreatePR(ctx, CreatePRInput{EmpCode: "EMP-1", Rows: []PRRowInput{
		{LineNo: 1, ItemID: 10, ReqQty: 0},
	}})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreatePR(ctx, CreatePRInput{EmpCode: "GHOST", Rows: prRowsInput(1)})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CreatePR(ctx, CreatePRInput{EmpCode: "EMP-1", Rows: []PRRowInput{
		{LineNo: 1, ItemID: 99999, ReqQty: 1},
	}})
	require.ErrorIs(t, err, ErrNotFound)

	closed := newProcService(repo, nil, &stubPeriods{closed: true})
	_, err = closed.CreatePR(ctx, CreatePRInput{EmpCode: "EMP-1", Rows: prRowsInput(1)})
	require.ErrorIs(t, err, ErrValidation)
}

func TestUpdatePRReplacesRows(t *testing.T) {
	repo := newMemoryProcRepo()
	seedMasters(repo)
	ledger := &stubLedger{stock: map[int64]float64{10: 1, 11: 2, 12: 3}}
	svc := newProcService(repo, ledger, nil)
	ctx := context.Background()

	pr, err := svc.CreatePR(ctx, CreatePRInput{EmpCode: "EMP-1", Rows: prRowsInput(4, 2)})
	require.NoError(t, err)

	updated, err := svc.UpdatePR(ctx, pr.ReqID, UpdatePRInput{
		EmpCode: "EMP-1",
		Rows: []PRRowInput{
			{LineNo: 1, ItemID: 12, ReqQty: 9},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Rows, 1)
	require.Equal(t, int64(12), updated.Rows[0].ItemID)
	require.Equal(t, 3.0, updated.Rows[0].CurrentStock)
	require.Equal(t, pr.ReqNo, updated.ReqNo)
}

func TestSetPRStatusHasNoTransitionGraph(t *testing.T) {
	repo := newMemoryProcRepo()
	seedMasters(repo)
	svc := newProcService(repo, nil, nil)
	ctx := context.Background()

	pr, err := svc.CreatePR(ctx, CreatePRInput{EmpCode: "EMP-1", Rows: prRowsInput(1)})
	require.NoError(t, err)

	rejected, err := svc.SetPRStatus(ctx, pr.ReqID, PRStatusRejected, "mgr")
	require.NoError(t, err)
	require.Equal(t, PRStatusRejected, rejected.Status)

	approved, err := svc.SetPRStatus(ctx, pr.ReqID, PRStatusApproved, "mgr")
	require.NoError(t, err)
	require.Equal(t, PRStatusApproved, approved.Status)

	_, err = svc.SetPRStatus(ctx, pr.ReqID, PRStatus("Archived"), "mgr")
	require.ErrorIs(t, err, ErrValidation)
}

func TestConvertMergesAndRenumbers(t *testing.T) {
	repo := newMemoryProcRepo()
	seedMasters(repo)
	svc := newProcService(repo, nil, nil)
	ctx := context.Background()

	first, err := svc.CreatePR(ctx, CreatePRInput{EmpCode: "EMP-1", Rows: prRowsInput(4, 2)})
	require.NoError(t, err)
	second, err := svc.CreatePR(ctx, CreatePRInput{EmpCode: "EMP-1", Rows: prRowsInput(1, 5, 3)})
	require.NoError(t, err)
	for _, id := range []int64{first.ReqID, second.ReqID} {
		_, err = svc.SetPRStatus(ctx, id, PRStatusApproved, "mgr")
		require.NoError(t, err)
	}

	po, err := svc.ConvertFromPRs(ctx, ConvertInput{ReqIDs: []int64{first.ReqID, second.ReqID}, BPCode: "V-100"})
	require.NoError(t, err)
	require.Equal(t, POStatusOpen, po.Status)
	require.Equal(t, "Precision Supplies", po.BPName)
	require.Equal(t, "Asha Rao", po.EmpName)
	require.Len(t, po.Rows, 5)
	for i, row := range po.Rows {
		require.Equal(t, i+1, row.LineNo)
		require.Zero(t, row.UnitPrice)
		require.Zero(t, row.TaxAmt)
		require.NotZero(t, row.PRReqID)
		require.NotEmpty(t, row.PRNo)
	}
	require.Equal(t, first.ReqNo, po.Rows[0].PRNo)
	require.Equal(t, second.ReqNo, po.Rows[2].PRNo)

	convertedFirst, err := svc.GetPR(ctx, first.ReqID)
	require.NoError(t, err)
	require.Equal(t, PRStatusConverted, convertedFirst.Status)
	convertedSecond, err := svc.GetPR(ctx, second.ReqID)
	require.NoError(t, err)
	require.Equal(t, PRStatusConverted, convertedSecond.Status)
}

func TestConvertIsAtomic(t *testing.T) {
	repo := newMemoryProcRepo()
	seedMasters(repo)
	svc := newProcService(repo, nil, nil)
	ctx := context.Background()

	first, err := svc.CreatePR(ctx, CreatePRInput{EmpCode: "EMP-1", Rows: prRowsInput(4, 2)})
	require.NoError(t, err)
	_, err = svc.SetPRStatus(ctx, first.ReqID, PRStatusApproved, "mgr")
	require.NoError(t, err)
	second, err := svc.CreatePR(ctx, CreatePRInput{EmpCode: "EMP-1", Rows: prRowsInput(1)})
	require.NoError(t, err)

	_, err = svc.ConvertFromPRs(ctx, ConvertInput{ReqIDs: []int64{first.ReqID, second.ReqID}, BPCode: "V-100"})
	require.ErrorIs(t, err, ErrValidation)

	// nothing converted, no order created
	intact, err := svc.GetPR(ctx, first.ReqID)
	require.NoError(t, err)
	require.Equal(t, PRStatusApproved, intact.Status)
	pos, err := svc.ListPOs(ctx, POFilter{})
	require.NoError(t, err)
	require.Empty(t, pos)
}

func TestCreatePOComputesTotals(t *testing.T) {
	repo := newMemoryProcRepo()
	seedMasters(repo)
	svc := newProcService(repo, nil, nil)
	ctx := context.Background()

	po, err := svc.CreatePO(ctx, CreatePOInput{
		BPCode:  "V-100",
		EmpCode: "EMP-1",
		Rows: []PORowInput{
			{LineNo: 1, ItemID: 10, UOMID: 1, ReqQty: 10, UnitPrice: 100, DiscountPercent: 10, TaxCode: "GST18", WarehouseID: 1},
			{LineNo: 2, ItemID: 11, ReqQty: 5, UnitPrice: 20},
		},
	})
	require.NoError(t, err)

	// line 1: gross 1000, discount 100, tax 162, total 1062
	require.Equal(t, 100.0, po.Rows[0].DiscountAmt)
	require.Equal(t, 162.0, po.Rows[0].TaxAmt)
	require.Equal(t, 1062.0, po.Rows[0].LineTotal)
	require.Equal(t, 100.0, po.Rows[1].LineTotal)

	require.Equal(t, 1100.0, po.Subtotal)
	require.Equal(t, 100.0, po.DiscountAmt)
	require.Equal(t, 162.0, po.TaxAmt)
	require.Equal(t, 1162.0, po.TotalAmt)
	require.Equal(t, int64(3), po.DeptID)
}

func TestCreatePORejectsBadReferences(t *testing.T) {
	repo := newMemoryProcRepo()
	seedMasters(repo)
	svc := newProcService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.CreatePO(ctx, CreatePOInput{BPCode: "NOPE", Rows: []PORowInput{{LineNo: 1, ItemID: 10, ReqQty: 1}}})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CreatePO(ctx, CreatePOInput{BPCode: "V-100", Rows: []PORowInput{{LineNo: 1, ItemID: 10, ReqQty: 1, TaxCode: "GST28"}}})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CreatePO(ctx, CreatePOInput{BPCode: "V-100", Rows: []PORowInput{{LineNo: 1, ItemID: 10, ReqQty: 1, UOMID: 99}}})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CreatePO(ctx, CreatePOInput{BPCode: "V-100", Rows: []PORowInput{{LineNo: 1, ItemID: 10, ReqQty: 1, WarehouseID: 99}}})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClosedPORefusesMutation(t *testing.T) {
	repo := newMemoryProcRepo()
	seedMasters(repo)
	svc := newProcService(repo, nil, nil)
	ctx := context.Background()

	po, err := svc.CreatePO(ctx, CreatePOInput{BPCode: "V-100", Rows: []PORowInput{{LineNo: 1, ItemID: 10, ReqQty: 1, UnitPrice: 5}}})
	require.NoError(t, err)

	closed, err := svc.SetPOStatus(ctx, po.POID, POStatusClosed, "mgr")
	require.NoError(t, err)
	require.Equal(t, POStatusClosed, closed.Status)

	_, err = svc.SetPOStatus(ctx, po.POID, POStatus("Archived"), "mgr")
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdatePO(ctx, po.POID, UpdatePOInput{BPCode: "V-100", Rows: []PORowInput{{LineNo: 1, ItemID: 10, ReqQty: 2, UnitPrice: 5}}})
	require.ErrorIs(t, err, ErrPOClosed)

	err = svc.DeletePO(ctx, po.POID)
	require.ErrorIs(t, err, ErrPOClosed)

	// still present and untouched
	got, err := svc.GetPO(ctx, po.POID)
	require.NoError(t, err)
	require.Equal(t, po.TotalAmt, got.TotalAmt)
}
