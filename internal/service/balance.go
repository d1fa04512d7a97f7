package service

import (
	"fmt"

	"acopio/internal/model"

	"github.com/shopspring/decimal"
)

// CalcularSaldoEsperado returns inicial + Σingresos − Σegresos.
func CalcularSaldoEsperado(inicial decimal.Decimal, movimientos []model.MovimientoCaja) decimal.Decimal {
	saldo := inicial
	for _, m := range movimientos {
		saldo = saldo.Add(montoConSigno(m.Direccion, m.Monto))
	}
	return saldo
}

// CalcularDesvio returns contado − esperado. A positive desvío means the
// drawer holds more cash than the ledger explains.
func CalcularDesvio(contado, esperado decimal.Decimal) decimal.Decimal {
	return contado.Sub(esperado)
}

// FormatearVoucher zero-pads n to width digits.
func FormatearVoucher(n int64, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}

func montoConSigno(direccion string, monto decimal.Decimal) decimal.Decimal {
	if direccion == model.DireccionIngreso {
		return monto
	}
	return monto.Neg()
}

// calcularItem applies the weighing rule of a compra line:
// neto = max(0, bruto − descuento), subtotal = round2(neto × precio).
func calcularItem(bruto, descuento, precio decimal.Decimal) (neto, subtotal decimal.Decimal) {
	neto = bruto.Sub(descuento)
	if neto.IsNegative() {
		neto = decimal.Zero
	}
	return neto, neto.Mul(precio).Round(2)
}
