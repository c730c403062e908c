package adapters

import (
	"github.com/de-tools/ledger-atlas/pkg/models/api"
	"github.com/de-tools/ledger-atlas/pkg/models/domain"
	"github.com/de-tools/ledger-atlas/pkg/models/store"
)

func MapStoreRecordToDomain(record store.FinancialRecord) domain.Record {
	return domain.Record{
		ID:           record.ID,
		DocumentType: record.DocumentType,
		Vendor:       record.Vendor,
		Category:     record.Category,
		Total:        record.Total,
		Quantity:     record.Quantity,
		UnitPrice:    record.UnitPrice,
		Date:         record.Date,
		SourceFile:   record.SourceFile,
	}
}

func MapStoreRecordsToDomain(records []store.FinancialRecord) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	for _, record := range records {
		out = append(out, MapStoreRecordToDomain(record))
	}
	return out
}

func MapTransactionDomainToApi(tx domain.Transaction) api.Transaction {
	out := api.Transaction{
		ID:            tx.ID,
		DocumentType:  tx.DocumentType,
		Vendor:        tx.Vendor,
		Category:      tx.Category,
		Total:         tx.Total,
		Quantity:      tx.Quantity,
		UnitPrice:     tx.UnitPrice,
		Date:          tx.Date.Format("2006-01-02"),
		SourceFile:    tx.SourceFile,
		IsOutlier:     tx.IsOutlier,
		OutlierReason: tx.OutlierReason,
	}
	return out
}

func MapTransactionPageDomainToApi(page domain.TransactionPage) api.TransactionPage {
	out := api.TransactionPage{
		Results: make([]api.Transaction, 0, len(page.Results)),
		Total:   page.Total,
		Page:    page.Page,
		Pages:   page.Pages,
	}
	for _, tx := range page.Results {
		out.Results = append(out.Results, MapTransactionDomainToApi(tx))
	}
	return out
}
