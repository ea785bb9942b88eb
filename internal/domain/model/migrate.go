package model

// AutoMigrateの対象（依存される側を先に並べる）
func All() []interface{} {
	return []interface{}{
		&User{},
		&RefreshToken{},
		&CustomerProfile{},
		&Address{},
		&Product{},
		&ProductVariant{},
		&InventoryAdjustment{},
		&Collection{},
		&Cart{},
		&CartItem{},
		&CheckoutSession{},
		&Order{},
		&OrderItem{},
		&Supplier{},
		&PurchaseOrder{},
		&PurchaseOrderItem{},
		&AuditLog{},
	}
}
