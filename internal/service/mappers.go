package service

import (
	"time"

	"acopio/internal/dto"
	"acopio/internal/model"
)

func formatTime(t time.Time) string { return t.Format(time.RFC3339) }

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func sesionToResponse(s *model.SesionCaja) dto.SesionCajaResponse {
	return dto.SesionCajaResponse{
		ID:            s.ID.String(),
		Fecha:         s.Fecha,
		UsuarioID:     s.UsuarioID.String(),
		MontoInicial:  s.MontoInicial,
		MontoEsperado: s.MontoEsperado,
		MontoContado:  s.MontoContado,
		Desvio:        s.Desvio,
		Estado:        s.Estado,
		Observaciones: s.Observaciones,
		OpenedAt:      formatTime(s.OpenedAt),
		ClosedAt:      formatTimePtr(s.ClosedAt),
	}
}

func movimientoToResponse(m *model.MovimientoCaja) dto.MovimientoCajaResponse {
	resp := dto.MovimientoCajaResponse{
		ID:                m.ID.String(),
		Tipo:              m.Tipo,
		Direccion:         m.Direccion,
		Monto:             m.Monto,
		Descripcion:       m.Descripcion,
		AjusteRetroactivo: m.AjusteRetroactivo,
		CreatedAt:         formatTime(m.CreatedAt),
	}
	if m.ReferenciaID != nil {
		ref := m.ReferenciaID.String()
		resp.ReferenciaID = &ref
	}
	return resp
}

func compraToResponse(c *model.Compra) *dto.CompraResponse {
	resp := &dto.CompraResponse{
		ID:                c.ID.String(),
		NumeroVoucher:     c.NumeroVoucher,
		ProveedorID:       c.ProveedorID.String(),
		SesionCajaID:      c.SesionCajaID.String(),
		PesoTotal:         c.PesoTotal,
		Total:             c.Total,
		Editada:           c.Editada,
		EditadaAt:         formatTimePtr(c.EditadaAt),
		AjusteRetroactivo: c.AjusteRetroactivo,
		CreatedAt:         formatTime(c.CreatedAt),
		Items:             make([]dto.CompraItemResponse, 0, len(c.Items)),
	}
	if c.Proveedor != nil {
		resp.Proveedor = c.Proveedor.Nombre
	}
	for _, it := range c.Items {
		item := dto.CompraItemResponse{
			ID:             it.ID.String(),
			Linea:          it.Linea,
			ProductoID:     it.ProductoID.String(),
			NivelSecado:    it.NivelSecado,
			Calidad:        it.Calidad,
			ModoPesaje:     it.ModoPesaje,
			PesoBruto:      it.PesoBruto,
			DescuentoPeso:  it.DescuentoPeso,
			PesoNeto:       it.PesoNeto,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
		}
		if it.Producto != nil {
			item.Producto = it.Producto.Nombre
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}

func proveedorToResponse(p *model.Proveedor) dto.ProveedorResponse {
	return dto.ProveedorResponse{
		ID:            p.ID.String(),
		Documento:     p.Documento,
		Nombre:        p.Nombre,
		Telefono:      p.Telefono,
		EsAnonimo:     p.EsAnonimo,
		SaldoPrestamo: p.SaldoPrestamo,
	}
}

func movimientoPrestamoToResponse(m *model.MovimientoPrestamo) dto.MovimientoPrestamoResponse {
	return dto.MovimientoPrestamoResponse{
		ID:           m.ID.String(),
		ProveedorID:  m.ProveedorID.String(),
		SesionCajaID: m.SesionCajaID.String(),
		Tipo:         m.Tipo,
		Monto:        m.Monto,
		Saldo:        m.Saldo,
		Descripcion:  m.Descripcion,
		CreatedAt:    formatTime(m.CreatedAt),
	}
}

func productoToResponse(p *model.Producto) dto.ProductoResponse {
	return dto.ProductoResponse{
		ID:            p.ID.String(),
		Nombre:        p.Nombre,
		NivelesSecado: p.NivelesSecado,
		Calidades:     p.Calidades,
		PermiteSacos:  p.PermiteSacos,
	}
}
