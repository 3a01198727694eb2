package entity

import "github.com/shopspring/decimal"

// Canales de cobro de la cuota de socios.
const (
	ChannelBranchRecorded = "branch_recorded" // registrado por la sucursal, se factura
	ChannelBankTransfer   = "bank_transfer"   // domiciliación bancaria, ya cobrado
)

// MembershipLine una fila de la lista mensual de cuotas por aula.
type MembershipLine struct {
	ClassroomCode string
	ClassroomName string
	Count         int
	UnitPrice     decimal.Decimal // precio registrado (el que se muestra en la lista)
	Channel       string          // ver constantes Channel*
	Excluded      bool            // marca de exclusión pensada para aulas subordinadas
}

// IsBankTransfer indica si la fila se cobró por domiciliación.
func (l MembershipLine) IsBankTransfer() bool { return l.Channel == ChannelBankTransfer }

// Amount cantidad × precio registrado.
func (l MembershipLine) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Count)))
}
