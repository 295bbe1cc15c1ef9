package redisjson

import (
	"slices"
	"strings"

	"bahikhata/backend/internal/domain"
)

func sortTransactionsDateDesc(txs []domain.Transaction) {
	slices.SortFunc(txs, func(a, b domain.Transaction) int {
		if a.Date.Equal(b.Date) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.Date.After(b.Date) {
			return -1
		}
		return 1
	})
}

func sortSaleBillsDateDesc(bills []domain.SaleBill) {
	slices.SortFunc(bills, func(a, b domain.SaleBill) int {
		if a.Date.Equal(b.Date) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.Date.After(b.Date) {
			return -1
		}
		return 1
	})
}

func sortRemindersDueDateAsc(reminders []domain.Reminder) {
	slices.SortFunc(reminders, func(a, b domain.Reminder) int {
		if a.DueDate.Equal(b.DueDate) {
			return strings.Compare(a.ID, b.ID)
		}
		if a.DueDate.Before(b.DueDate) {
			return -1
		}
		return 1
	})
}

func sortExpensesDateDesc(expenses []domain.Expense) {
	slices.SortFunc(expenses, func(a, b domain.Expense) int {
		if a.Date.Equal(b.Date) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.Date.After(b.Date) {
			return -1
		}
		return 1
	})
}
