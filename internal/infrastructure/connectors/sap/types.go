package sap

import (
	"github.com/shopspring/decimal"
)

// OData-v2-style envelopes. SAP wraps single entities and result sets in a
// "d" object; amounts arrive as strings.

type singleEnvelope[T any] struct {
	D *T `json:"d"`
}

type listEnvelope[T any] struct {
	D struct {
		Results []T `json:"results"`
	} `json:"d"`
}

type odataErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message struct {
			Value string `json:"value"`
		} `json:"message"`
		InnerError struct {
			ErrorDetails []struct {
				Code    string `json:"code"`
				Message string `json:"message"`
				Target  string `json:"target"`
			} `json:"errordetails"`
		} `json:"innererror"`
	} `json:"error"`
}

type sapProduct struct {
	Product            string `json:"Product"`
	ProductDescription string `json:"ProductDescription"`
	ProductType        string `json:"ProductType"`
	BaseUnit           string `json:"BaseUnit"`
	StandardPrice      string `json:"StandardPrice"`
	Currency           string `json:"Currency"`
	GrossWeight        string `json:"GrossWeight"`
	WeightUnit         string `json:"WeightUnit"`
	ProductIsMarkedForDeletion bool `json:"ProductIsMarkedForDeletion"`
}

type sapSalesOrder struct {
	SalesOrder            string             `json:"SalesOrder"`
	SalesOrderType        string             `json:"SalesOrderType"`
	SoldToParty           string             `json:"SoldToParty"`
	SoldToPartyName       string             `json:"SoldToPartyName"`
	OverallSDProcessStatus string            `json:"OverallSDProcessStatus"`
	TotalNetAmount        string             `json:"TotalNetAmount"`
	TotalTaxAmount        string             `json:"TotalTaxAmount"`
	TransactionCurrency   string             `json:"TransactionCurrency"`
	RequestedDeliveryDate string             `json:"RequestedDeliveryDate"`
	CreationDate          string             `json:"CreationDate"`
	PurchaseOrderByCustomer string           `json:"PurchaseOrderByCustomer"`
	Items                 []sapSalesOrderItem `json:"to_Item,omitempty"`
}

type sapSalesOrderItem struct {
	SalesOrderItem     string `json:"SalesOrderItem"`
	Material           string `json:"Material"`
	SalesOrderItemText string `json:"SalesOrderItemText"`
	RequestedQuantity  string `json:"RequestedQuantity"`
	RequestedQuantityUnit string `json:"RequestedQuantityUnit"`
	NetAmount          string `json:"NetAmount"`
	NetPriceAmount     string `json:"NetPriceAmount"`
	ProductionPlant    string `json:"ProductionPlant"`
}

type sapCustomer struct {
	Customer       string `json:"Customer"`
	CustomerName   string `json:"CustomerName"`
	Country        string `json:"Country"`
	CityName       string `json:"CityName"`
	PostalCode     string `json:"PostalCode"`
	StreetName     string `json:"StreetName"`
	Region         string `json:"Region"`
	TelephoneNumber1 string `json:"TelephoneNumber1"`
	EmailAddress   string `json:"EmailAddress"`
	OrderIsBlockedForCustomer string `json:"OrderIsBlockedForCustomer"`
	DeletionIndicator bool  `json:"DeletionIndicator"`
}

type sapInvoice struct {
	BillingDocument     string            `json:"BillingDocument"`
	BillingDocumentType string            `json:"BillingDocumentType"`
	SoldToParty         string            `json:"SoldToParty"`
	TotalNetAmount      string            `json:"TotalNetAmount"`
	TotalTaxAmount      string            `json:"TotalTaxAmount"`
	TransactionCurrency string            `json:"TransactionCurrency"`
	BillingDocumentDate string            `json:"BillingDocumentDate"`
	PaymentStatus       string            `json:"PaymentStatus"`
	OverallBillingStatus string           `json:"OverallBillingStatus"`
	Items               []sapInvoiceItem  `json:"to_Item,omitempty"`
}

type sapInvoiceItem struct {
	BillingDocumentItem string `json:"BillingDocumentItem"`
	Material            string `json:"Material"`
	BillingDocumentItemText string `json:"BillingDocumentItemText"`
	BillingQuantity     string `json:"BillingQuantity"`
	NetAmount           string `json:"NetAmount"`
}

type sapStock struct {
	Material          string `json:"Material"`
	Plant             string `json:"Plant"`
	MatlWrhsStkQtyInMatlBaseUnit string `json:"MatlWrhsStkQtyInMatlBaseUnit"`
	ReservedQuantity  string `json:"ReservedQuantity"`
	OnOrderQuantity   string `json:"OnOrderQuantity"`
	BaseUnit          string `json:"BaseUnit"`
}

type sapAvailability struct {
	Material          string `json:"Material"`
	Plant             string `json:"Plant"`
	RequestedQuantity string `json:"RequestedQuantity"`
	AvailableQuantity string `json:"AvailableQuantity"`
	AvailabilityDate  string `json:"AvailabilityDate"`
}

// parseDecimal parses a SAP decimal string, returning zero on absence or
// malformed input.
func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
