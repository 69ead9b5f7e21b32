package main

import (
	"errors"
	"log"
	"time"

	"github.com/cartrecovery/internal/app"
	"github.com/cartrecovery/internal/config"
	"github.com/cartrecovery/internal/logger"
	"github.com/cartrecovery/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type seedProduct struct {
	slug   string
	titles map[string]interface{}
	price  string
	skus   []string
}

type seedCart struct {
	session    string
	ownerEmail string
	guestEmail string
	guestName  string
	idleFor    time.Duration
	items      []seedCartItem
}

type seedCartItem struct {
	slug     string
	sku      string
	quantity int
}

var demoProducts = []seedProduct{
	{
		slug:   "wireless-earbuds",
		titles: map[string]interface{}{"zh-CN": "无线耳机", "zh-TW": "無線耳機", "en-US": "Wireless Earbuds"},
		price:  "59.90",
		skus:   []string{"BLACK", "WHITE"},
	},
	{
		slug:   "travel-mug",
		titles: map[string]interface{}{"zh-CN": "保温杯", "zh-TW": "保溫杯", "en-US": "Travel Mug"},
		price:  "18.00",
	},
	{
		slug:   "usb-c-hub",
		titles: map[string]interface{}{"zh-CN": "USB-C 扩展坞", "zh-TW": "USB-C 擴充座", "en-US": "USB-C Hub"},
		price:  "35.50",
	},
}

var demoUsers = []models.User{
	{Email: "alice@example.com", DisplayName: "Alice", Locale: "en-US", Status: "active"},
	{Email: "chen@example.com", DisplayName: "小陈", Locale: "zh-CN", Status: "active"},
}

// 覆盖检测的几种典型情况：已过阈值、刚修改、金额过低、游客无邮箱
var demoCarts = []seedCart{
	{
		session:    "seed-alice",
		ownerEmail: "alice@example.com",
		idleFor:    3 * time.Hour,
		items:      []seedCartItem{{slug: "wireless-earbuds", sku: "BLACK", quantity: 1}, {slug: "travel-mug", quantity: 2}},
	},
	{
		session:    "seed-chen",
		ownerEmail: "chen@example.com",
		idleFor:    10 * time.Minute,
		items:      []seedCartItem{{slug: "usb-c-hub", quantity: 1}},
	},
	{
		session:    "seed-guest-mail",
		guestEmail: "guest@example.com",
		guestName:  "Guest",
		idleFor:    26 * time.Hour,
		items:      []seedCartItem{{slug: "usb-c-hub", quantity: 2}},
	},
	{
		session: "seed-guest-anonymous",
		idleFor: 5 * time.Hour,
		items:   []seedCartItem{{slug: "travel-mug", quantity: 1}},
	},
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := app.InitStorage(cfg); err != nil {
		stdLog.Fatalf("存储初始化失败: %v", err)
	}

	productIDs, skuIDs := seedProducts(stdLog)
	userIDs := seedUsers(stdLog)
	seedCarts(stdLog, productIDs, skuIDs, userIDs)
	stdLog.Printf("Seed finished")
}

func seedProducts(stdLog *log.Logger) (map[string]uint, map[string]uint) {
	productIDs := make(map[string]uint, len(demoProducts))
	skuIDs := make(map[string]uint)
	for _, item := range demoProducts {
		var product models.Product
		err := models.DB.Where("slug = ?", item.slug).First(&product).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			product = models.Product{
				Slug:        item.slug,
				TitleJSON:   models.JSON(item.titles),
				PriceAmount: models.NewMoneyFromDecimal(decimal.RequireFromString(item.price)),
				IsActive:    true,
			}
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", item.slug, err)
				continue
			}
			stdLog.Printf("Created product: %s", item.slug)
		} else if err != nil {
			stdLog.Printf("Failed to load product %s: %v", item.slug, err)
			continue
		}
		productIDs[item.slug] = product.ID

		for _, code := range item.skus {
			var sku models.ProductSKU
			err := models.DB.Where("product_id = ? AND sku_code = ?", product.ID, code).First(&sku).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				sku = models.ProductSKU{
					ProductID:      product.ID,
					SKUCode:        code,
					SpecValuesJSON: models.JSON{"color": code},
					PriceAmount:    product.PriceAmount,
					IsActive:       true,
				}
				if err := models.DB.Create(&sku).Error; err != nil {
					stdLog.Printf("Failed to create sku %s/%s: %v", item.slug, code, err)
					continue
				}
			} else if err != nil {
				stdLog.Printf("Failed to load sku %s/%s: %v", item.slug, code, err)
				continue
			}
			skuIDs[item.slug+"/"+code] = sku.ID
		}
	}
	return productIDs, skuIDs
}

func seedUsers(stdLog *log.Logger) map[string]uint {
	userIDs := make(map[string]uint, len(demoUsers))
	for _, item := range demoUsers {
		user := item
		if err := models.DB.Where("email = ?", user.Email).FirstOrCreate(&user).Error; err != nil {
			stdLog.Printf("Failed to create user %s: %v", item.Email, err)
			continue
		}
		userIDs[user.Email] = user.ID
	}
	return userIDs
}

func seedCarts(stdLog *log.Logger, productIDs, skuIDs, userIDs map[string]uint) {
	now := time.Now()
	for _, item := range demoCarts {
		var count int64
		if err := models.DB.Model(&models.Cart{}).Where("session_id = ?", item.session).Count(&count).Error; err != nil {
			stdLog.Printf("Failed to check cart %s: %v", item.session, err)
			continue
		}
		if count > 0 {
			stdLog.Printf("Cart already exists: %s", item.session)
			continue
		}

		touchedAt := now.Add(-item.idleFor)
		session := item.session
		cart := models.Cart{
			SessionID:  &session,
			GuestEmail: item.guestEmail,
			GuestName:  item.guestName,
			CreatedAt:  touchedAt,
			UpdatedAt:  touchedAt,
		}
		if item.ownerEmail != "" {
			userID, ok := userIDs[item.ownerEmail]
			if !ok {
				stdLog.Printf("Skip cart %s: owner %s missing", item.session, item.ownerEmail)
				continue
			}
			cart.UserID = &userID
		}
		for _, line := range item.items {
			productID, ok := productIDs[line.slug]
			if !ok {
				continue
			}
			var product models.Product
			if err := models.DB.First(&product, productID).Error; err != nil {
				continue
			}
			cart.Items = append(cart.Items, models.CartItem{
				ProductID: productID,
				SKUID:     skuIDs[line.slug+"/"+line.sku],
				Quantity:  line.quantity,
				UnitPrice: product.PriceAmount,
				CreatedAt: touchedAt,
				UpdatedAt: touchedAt,
			})
		}
		if err := models.DB.Create(&cart).Error; err != nil {
			stdLog.Printf("Failed to create cart %s: %v", item.session, err)
			continue
		}
		stdLog.Printf("Created cart: %s (idle %s, %d items)", item.session, item.idleFor, len(cart.Items))
	}
}
