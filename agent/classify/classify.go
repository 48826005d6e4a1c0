// Package classify routes a raw user utterance to an agent persona
// using static keyword matching, English and Arabic. Precedence is
// fixed: greetings, then finance, then HR, then contracts, with
// executive as the default. Keyword sets overlap, so reordering the
// checks changes routing.
package classify

import (
	"strings"

	"github.com/egware/erpagent/agent"
)

var greetingPhrases = []string{
	"hello", "hi ", "hey", "good morning", "good afternoon", "good evening",
	"how are you", "thank you", "thanks", "bye", "goodbye",
	"ازيك", "اهلا", "أهلا", "مرحبا", "صباح الخير", "مساء الخير",
	"السلام عليكم", "شكرا", "مع السلامة",
}

var financeKeywords = []string{
	"invoice", "payment", "revenue", "profit", "loss", "expense",
	"cash flow", "cashflow", "receivable", "payable", "journal",
	"accounting", "sales", "sale order", "quotation", "overdue",
	"balance", "financial", "budget", "tax",
	"فاتورة", "فواتير", "مدفوعات", "ايراد", "إيراد", "مصروف",
	"مصاريف", "ارباح", "أرباح", "خساير", "مبيعات", "ميزانية", "حساب",
}

var hrKeywords = []string{
	"employee", "staff", "leave", "vacation", "sick",
	"attendance", "hiring", "recruit", "applicant", "cv",
	"resume", "department", "manager", "salary", "payroll",
	"موظف", "موظفين", "اجازة", "إجازة", "حضور", "انصراف",
	"توظيف", "مرتب", "مرتبات", "قسم",
}

var contractKeywords = []string{
	"contract", "agreement", "renewal", "expiring", "expire",
	"subscription", "partner", "vendor", "supplier", "client",
	"عقد", "عقود", "تجديد", "اتفاقية", "مورد", "عميل",
}

// Route maps an utterance to exactly one persona. It is total and
// deterministic; ties are broken by list order.
func Route(text string) agent.Persona {
	lower := strings.ToLower(strings.TrimSpace(text))

	if containsAny(lower, greetingPhrases) {
		return agent.PersonaExecutive
	}
	if containsAny(lower, financeKeywords) {
		return agent.PersonaFinance
	}
	if containsAny(lower, hrKeywords) {
		return agent.PersonaHR
	}
	if containsAny(lower, contractKeywords) {
		return agent.PersonaContracts
	}
	return agent.PersonaExecutive
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
