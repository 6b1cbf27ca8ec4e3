package wire

import (
	"hub-backend/internal/domain"

	"google.golang.org/protobuf/encoding/protowire"
)

type UserInfo struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func NewUserInfo(u *domain.User) *UserInfo {
	return &UserInfo{
		ID:        u.UserID.String(),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func (m *UserInfo) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.ID)
	b = appendString(b, 2, m.Email)
	b = appendString(b, 3, m.FirstName)
	return appendString(b, 4, m.LastName)
}

func (m *UserInfo) UnmarshalWire(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.ID = string(f.bytes)
		case 2:
			m.Email = string(f.bytes)
		case 3:
			m.FirstName = string(f.bytes)
		case 4:
			m.LastName = string(f.bytes)
		}
		return nil
	})
}

type UserInfoList struct {
	Users []*UserInfo `json:"users"`
}

func NewUserInfoList(users []domain.User) *UserInfoList {
	out := &UserInfoList{Users: make([]*UserInfo, 0, len(users))}
	for i := range users {
		out.Users = append(out.Users, NewUserInfo(&users[i]))
	}
	return out
}

func (m *UserInfoList) AppendWire(b []byte) []byte {
	for _, u := range m.Users {
		b = appendMessage(b, 1, u)
	}
	return b
}

func (m *UserInfoList) UnmarshalWire(b []byte) error {
	return walk(b, func(f field) error {
		if f.num != 1 {
			return nil
		}
		u := &UserInfo{}
		if err := u.UnmarshalWire(f.bytes); err != nil {
			return err
		}
		m.Users = append(m.Users, u)
		return nil
	})
}

type LoginInfo struct {
	Email     string `json:"email"`
	UserID    string `json:"user_id"`
	AuthToken string `json:"auth_token"`
}

func (m *LoginInfo) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Email)
	b = appendString(b, 2, m.UserID)
	return appendString(b, 3, m.AuthToken)
}

func (m *LoginInfo) UnmarshalWire(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.Email = string(f.bytes)
		case 2:
			m.UserID = string(f.bytes)
		case 3:
			m.AuthToken = string(f.bytes)
		}
		return nil
	})
}

// RegistrationInfo is the body of an admin-driven user creation.
type RegistrationInfo struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

func (m *RegistrationInfo) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Email)
	b = appendString(b, 2, m.FirstName)
	b = appendString(b, 3, m.LastName)
	return appendString(b, 4, m.Password)
}

func (m *RegistrationInfo) UnmarshalWire(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.Email = string(f.bytes)
		case 2:
			m.FirstName = string(f.bytes)
		case 3:
			m.LastName = string(f.bytes)
		case 4:
			m.Password = string(f.bytes)
		}
		return nil
	})
}

type ProductInfo struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Handle         string `json:"handle"`
	MaxMemberCount int    `json:"max_member_count"`
	Default        bool   `json:"default"`
}

func NewProductInfo(p *domain.Product) *ProductInfo {
	return &ProductInfo{
		ID:             p.ProductID.String(),
		Name:           p.Name,
		Handle:         p.Handle,
		MaxMemberCount: p.MaxMemberCount,
		Default:        p.IsDefault,
	}
}

func (m *ProductInfo) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.ID)
	b = appendString(b, 2, m.Name)
	b = appendString(b, 3, m.Handle)
	b = appendInt(b, 4, m.MaxMemberCount)
	return appendBool(b, 5, m.Default)
}

func (m *ProductInfo) UnmarshalWire(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.ID = string(f.bytes)
		case 2:
			m.Name = string(f.bytes)
		case 3:
			m.Handle = string(f.bytes)
		case 4:
			m.MaxMemberCount = int(int64(f.varint))
		case 5:
			m.Default = protowire.DecodeBool(f.varint)
		}
		return nil
	})
}

type ProductInfoList struct {
	Products []*ProductInfo `json:"products"`
}

func NewProductInfoList(products []domain.Product) *ProductInfoList {
	out := &ProductInfoList{Products: make([]*ProductInfo, 0, len(products))}
	for i := range products {
		out.Products = append(out.Products, NewProductInfo(&products[i]))
	}
	return out
}

func (m *ProductInfoList) AppendWire(b []byte) []byte {
	for _, p := range m.Products {
		b = appendMessage(b, 1, p)
	}
	return b
}

func (m *ProductInfoList) UnmarshalWire(b []byte) error {
	return walk(b, func(f field) error {
		if f.num != 1 {
			return nil
		}
		p := &ProductInfo{}
		if err := p.UnmarshalWire(f.bytes); err != nil {
			return err
		}
		m.Products = append(m.Products, p)
		return nil
	})
}

type CreditCardInfo struct {
	MaskedNumber    string `json:"masked_number"`
	ExpirationMonth int    `json:"expiration_month"`
	ExpirationYear  int    `json:"expiration_year"`
}

func (m *CreditCardInfo) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.MaskedNumber)
	b = appendInt(b, 2, m.ExpirationMonth)
	return appendInt(b, 3, m.ExpirationYear)
}

func (m *CreditCardInfo) UnmarshalWire(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.MaskedNumber = string(f.bytes)
		case 2:
			m.ExpirationMonth = int(int64(f.varint))
		case 3:
			m.ExpirationYear = int(int64(f.varint))
		}
		return nil
	})
}

// Subscription state numbers in the binary form. Zero means "no state"
// (the synthetic default subscription).
var stateNumbers = map[domain.SubscriptionState]int{
	domain.StatePending:  1,
	domain.StateActive:   2,
	domain.StateCanceled: 3,
}

type UserSubscriptionInfo struct {
	Product            *ProductInfo    `json:"product"`
	CreditCard         *CreditCardInfo `json:"credit_card,omitempty"`
	State              string          `json:"state,omitempty"`
	ExternalID         string          `json:"external_id,omitempty"`
	ExternalCustomerID string          `json:"external_customer_id,omitempty"`
}

// NewUserSubscriptionInfo builds the info for sub, or the synthetic default view when sub is nil.
func NewUserSubscriptionInfo(sub *domain.UserSubscription, product *domain.Product) *UserSubscriptionInfo {
	info := &UserSubscriptionInfo{Product: NewProductInfo(product)}
	if sub == nil {
		return info
	}
	info.State = string(sub.State)
	info.ExternalID = sub.ExternalID
	info.ExternalCustomerID = sub.ExternalCustomerID
	if !sub.CreditCard.IsZero() {
		info.CreditCard = &CreditCardInfo{
			MaskedNumber:    sub.CreditCard.MaskedNumber,
			ExpirationMonth: sub.CreditCard.ExpirationMonth,
			ExpirationYear:  sub.CreditCard.ExpirationYear,
		}
	}
	return info
}

func (m *UserSubscriptionInfo) AppendWire(b []byte) []byte {
	if m.Product != nil {
		b = appendMessage(b, 1, m.Product)
	}
	if m.CreditCard != nil {
		b = appendMessage(b, 2, m.CreditCard)
	}
	b = appendInt(b, 3, stateNumbers[domain.SubscriptionState(m.State)])
	b = appendString(b, 4, m.ExternalID)
	return appendString(b, 5, m.ExternalCustomerID)
}

func (m *UserSubscriptionInfo) UnmarshalWire(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.Product = &ProductInfo{}
			return m.Product.UnmarshalWire(f.bytes)
		case 2:
			m.CreditCard = &CreditCardInfo{}
			return m.CreditCard.UnmarshalWire(f.bytes)
		case 3:
			for state, n := range stateNumbers {
				if uint64(n) == f.varint {
					m.State = string(state)
				}
			}
		case 4:
			m.ExternalID = string(f.bytes)
		case 5:
			m.ExternalCustomerID = string(f.bytes)
		}
		return nil
	})
}
