package service

import "time"

const (
	defaultVentanaEdicionDias = 2
	defaultAnchoVoucher       = 8
	maxReintentosTx           = 3
)

type opciones struct {
	now            func() time.Time
	loc            *time.Location
	ventanaEdicion int
	anchoVoucher   int
}

// Option customises the clock and business rules shared by the services.
type Option func(*opciones)

// WithClock replaces time.Now; tests use it to move across days.
func WithClock(now func() time.Time) Option {
	return func(o *opciones) { o.now = now }
}

// WithLocation sets the timezone that defines a calendar day for the shop.
func WithLocation(loc *time.Location) Option {
	return func(o *opciones) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// WithVentanaEdicion sets how many calendar days after its creation day a
// compra can still be edited.
func WithVentanaEdicion(dias int) Option {
	return func(o *opciones) {
		if dias > 0 {
			o.ventanaEdicion = dias
		}
	}
}

func WithAnchoVoucher(ancho int) Option {
	return func(o *opciones) {
		if ancho > 0 {
			o.anchoVoucher = ancho
		}
	}
}

func newOpciones(opts []Option) opciones {
	o := opciones{
		now:            time.Now,
		loc:            time.Local,
		ventanaEdicion: defaultVentanaEdicionDias,
		anchoVoucher:   defaultAnchoVoucher,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o opciones) ahora() time.Time { return o.now().In(o.loc) }

// hoy returns the current calendar day in the shop timezone as YYYY-MM-DD.
func (o opciones) hoy() string { return o.ahora().Format(time.DateOnly) }

// inicioDelDia truncates t to midnight in the shop timezone.
func (o opciones) inicioDelDia(t time.Time) time.Time {
	t = t.In(o.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, o.loc)
}

// ventanaEdicionVencida reports whether a compra created at creada can no
// longer be edited: now ≥ start of its creation day + ventanaEdicion days.
func (o opciones) ventanaEdicionVencida(creada time.Time) bool {
	limite := o.inicioDelDia(creada).AddDate(0, 0, o.ventanaEdicion)
	return !o.ahora().Before(limite)
}
