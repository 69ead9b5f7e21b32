package i18n

var messages = map[string]map[string]string{
	LocaleZH: {
		"error.bad_request":              "请求参数错误",
		"error.unauthorized":             "未登录或登录已过期",
		"error.forbidden":                "无权限访问",
		"error.not_found":                "资源不存在",
		"error.internal_error":           "服务器内部错误",
		"error.too_many_requests":        "请求过于频繁，请稍后再试",
		"error.login_invalid":            "用户名或密码错误",
		"error.recovery_link_invalid":    "挽回链接无效",
		"error.recovery_link_expired":    "挽回链接已过期",
		"error.recovery_link_used":       "挽回链接已被使用",
		"error.abandoned_cart_missing":   "弃购记录不存在",
		"error.abandoned_cart_open":      "该弃购记录尚未挽回，不能登记转化",
		"error.order_id_invalid":         "订单ID无效",
		"error.stats_range_invalid":      "统计时间范围无效",
		"error.retention_days_invalid":   "保留天数必须为正整数",
		"error.recovery_setting_invalid": "挽回策略配置无效",
		"error.dependency_failure":       "依赖服务暂不可用",
		"error.mail_send_failed":         "邮件发送失败",
		"error.jwt_secret_missing":       "服务端未配置登录密钥",
		"error.token_invalid":            "登录凭证无效",
		"error.auth_header_missing":      "缺少登录凭证",
		"error.auth_header_invalid":      "登录凭证格式错误",
		"error.token_revoked":            "登录状态已失效，请重新登录",
		"error.rate_limited":             "操作过于频繁，请 %d 秒后再试",
		"error.rate_limit_unavailable":   "限流服务暂不可用",
		"error.list_filter_invalid":      "筛选条件无效",
		"success.recovered":              "购物车已恢复",
		"mail.reminder_subject_1":        "{{name}}，您的购物车还在等您",
		"mail.reminder_subject_n":        "别错过：购物车中的 {{item_count}} 件商品",
		"mail.reminder_subject_final":    "最后提醒：使用折扣码 {{discount_code}} 立减 {{discount_percent}}%",
		"mail.reminder_greeting":         "{{name}}，您好：",
		"mail.reminder_intro":            "您有商品留在购物车中，点击下方链接即可继续结算。",
		"mail.reminder_total":            "合计",
		"mail.reminder_cta":              "恢复购物车",
		"mail.reminder_discount":         "结算时输入折扣码 {{discount_code}}，可享 {{discount_percent}}% 优惠。",
		"mail.reminder_expiry":           "链接有效期至 {{expires_at}}。",
		"mail.default_name":              "顾客",
	},
	LocaleTW: {
		"error.bad_request":              "請求參數錯誤",
		"error.unauthorized":             "未登入或登入已過期",
		"error.forbidden":                "無權限存取",
		"error.not_found":                "資源不存在",
		"error.internal_error":           "伺服器內部錯誤",
		"error.too_many_requests":        "請求過於頻繁，請稍後再試",
		"error.login_invalid":            "使用者名稱或密碼錯誤",
		"error.recovery_link_invalid":    "挽回連結無效",
		"error.recovery_link_expired":    "挽回連結已過期",
		"error.recovery_link_used":       "挽回連結已被使用",
		"error.abandoned_cart_missing":   "棄購紀錄不存在",
		"error.abandoned_cart_open":      "該棄購紀錄尚未挽回，不能登記轉換",
		"error.order_id_invalid":         "訂單ID無效",
		"error.stats_range_invalid":      "統計時間範圍無效",
		"error.retention_days_invalid":   "保留天數必須為正整數",
		"error.recovery_setting_invalid": "挽回策略設定無效",
		"error.dependency_failure":       "依賴服務暫不可用",
		"error.mail_send_failed":         "郵件發送失敗",
		"error.jwt_secret_missing":       "服務端未設定登入金鑰",
		"error.token_invalid":            "登入憑證無效",
		"error.auth_header_missing":      "缺少登入憑證",
		"error.auth_header_invalid":      "登入憑證格式錯誤",
		"error.token_revoked":            "登入狀態已失效，請重新登入",
		"error.rate_limited":             "操作過於頻繁，請 %d 秒後再試",
		"error.rate_limit_unavailable":   "限流服務暫不可用",
		"error.list_filter_invalid":      "篩選條件無效",
		"success.recovered":              "購物車已恢復",
		"mail.reminder_subject_1":        "{{name}}，您的購物車還在等您",
		"mail.reminder_subject_n":        "別錯過：購物車中的 {{item_count}} 件商品",
		"mail.reminder_subject_final":    "最後提醒：使用折扣碼 {{discount_code}} 立減 {{discount_percent}}%",
		"mail.reminder_greeting":         "{{name}}，您好：",
		"mail.reminder_intro":            "您有商品留在購物車中，點擊下方連結即可繼續結帳。",
		"mail.reminder_total":            "合計",
		"mail.reminder_cta":              "恢復購物車",
		"mail.reminder_discount":         "結帳時輸入折扣碼 {{discount_code}}，可享 {{discount_percent}}% 優惠。",
		"mail.reminder_expiry":           "連結有效期至 {{expires_at}}。",
		"mail.default_name":              "顧客",
	},
	LocaleEN: {
		"error.bad_request":              "Invalid request parameters",
		"error.unauthorized":             "Not signed in or session expired",
		"error.forbidden":                "Access denied",
		"error.not_found":                "Resource not found",
		"error.internal_error":           "Internal server error",
		"error.too_many_requests":        "Too many requests, please try again later",
		"error.login_invalid":            "Invalid username or password",
		"error.recovery_link_invalid":    "This recovery link is invalid",
		"error.recovery_link_expired":    "This recovery link has expired",
		"error.recovery_link_used":       "This recovery link has already been used",
		"error.abandoned_cart_missing":   "Abandoned cart not found",
		"error.abandoned_cart_open":      "Conversion can only be recorded on a recovered cart",
		"error.order_id_invalid":         "Invalid order id",
		"error.stats_range_invalid":      "Invalid stats date range",
		"error.retention_days_invalid":   "Retention days must be a positive integer",
		"error.recovery_setting_invalid": "Invalid recovery settings",
		"error.dependency_failure":       "A dependency is temporarily unavailable",
		"error.mail_send_failed":         "Failed to send email",
		"error.jwt_secret_missing":       "Sign-in secret is not configured",
		"error.token_invalid":            "Invalid credentials",
		"error.auth_header_missing":      "Missing credentials",
		"error.auth_header_invalid":      "Malformed credentials",
		"error.token_revoked":            "Session revoked, please sign in again",
		"error.rate_limited":             "Too many attempts, retry in %d seconds",
		"error.rate_limit_unavailable":   "Rate limiter unavailable",
		"error.list_filter_invalid":      "Invalid list filter",
		"success.recovered":              "Your cart has been restored",
		"mail.reminder_subject_1":        "{{name}}, your cart is waiting for you",
		"mail.reminder_subject_n":        "Don't miss out: {{item_count}} items in your cart",
		"mail.reminder_subject_final":    "Last reminder: save {{discount_percent}}% with code {{discount_code}}",
		"mail.reminder_greeting":         "Hi {{name}},",
		"mail.reminder_intro":            "You left some items in your cart. Use the link below to pick up where you left off.",
		"mail.reminder_total":            "Total",
		"mail.reminder_cta":              "Restore my cart",
		"mail.reminder_discount":         "Enter code {{discount_code}} at checkout for {{discount_percent}}% off.",
		"mail.reminder_expiry":           "This link is valid until {{expires_at}}.",
		"mail.default_name":              "there",
	},
}
