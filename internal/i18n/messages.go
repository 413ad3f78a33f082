package i18n

var messages = map[string]map[string]string{
	LocaleRU: {
		"error.bad_request":              "Некорректный запрос",
		"error.internal":                 "Внутренняя ошибка",
		"error.network_unavailable":      "Ошибка соединения с сервером. Попробуйте позже.",
		"error.remote_invalid_response":  "Сервер вернул некорректный ответ",
		"error.rate_limited":             "Слишком много запросов, повторите через %d с",
		"error.login_too_many":           "Слишком много попыток входа, повторите через %d с",
		"error.rate_limit_unavailable":   "Сервис ограничения запросов недоступен",
		"error.debounced":                "Подождите немного перед повторным нажатием",
		"error.not_found":                "Не найдено",
		"error.unauthorized":             "Требуется вход в аккаунт",
		"error.product_not_found":        "Товар не найден",
		"error.metadata_not_found":       "Дополнительная информация не найдена",
		"error.metadata_unavailable":     "Сервис информации о фильмах недоступен",
		"error.promo_invalid":            "Неверный промокод",
		"error.cart_item_not_found":      "Товар отсутствует в корзине",
		"error.cart_load_failed":         "Не удалось загрузить корзину",
		"error.cart_update_failed":       "Не удалось обновить корзину",
		"error.username_required":        "Введите имя пользователя",
		"error.username_min_length":      "Имя пользователя должно содержать минимум %d символа",
		"error.email_invalid":            "Введите корректный email",
		"error.password_required":        "Введите пароль",
		"error.password_min_length":      "Пароль должен содержать минимум %d символов",
		"error.password_require_upper":   "Пароль должен содержать заглавную букву",
		"error.password_require_lower":   "Пароль должен содержать строчную букву",
		"error.password_require_number":  "Пароль должен содержать цифру",
		"error.password_require_special": "Пароль должен содержать спецсимвол",
		"error.password_mismatch":        "Пароли не совпадают",
		"error.terms_required":           "Необходимо принять условия использования",
		"error.login_invalid":            "Неверное имя пользователя или пароль",
		"error.register_failed":          "Ошибка регистрации",
		"error.logout_failed":            "Не удалось выйти из аккаунта",
		"error.validation_failed":        "Проверьте правильность заполнения формы",
		"cart.remote_sync_failed":        "Изменения сохранены локально, но не синхронизированы с сервером",
		"cart.movie_id_unresolved":       "Не удалось определить фильм для синхронизации",
		"cart.remote_fetch_failed":       "Не удалось получить корзину с сервера, показана локальная копия",
		"cart.storage_persist_failed":    "Не удалось сохранить корзину локально",
		"metadata.awards_summary":        "%s побед, %s номинаций",
		"message.register_success":       "Регистрация прошла успешно",
		"message.login_success":          "Вход выполнен",
		"message.logout_success":         "Вы вышли из аккаунта",
		"message.item_added":             "Товар добавлен в корзину",
		"message.cart_cleared":           "Корзина очищена",
		"message.promo_applied":          "Промокод применён",
		"message.promo_cleared":          "Промокод удалён",
	},
	LocaleEN: {
		"error.bad_request":              "Bad request",
		"error.internal":                 "Internal error",
		"error.network_unavailable":      "Cannot reach the server. Please try again later.",
		"error.remote_invalid_response":  "The server returned an invalid response",
		"error.rate_limited":             "Too many requests, retry in %d s",
		"error.login_too_many":           "Too many login attempts, retry in %d s",
		"error.rate_limit_unavailable":   "Rate limiter unavailable",
		"error.debounced":                "Please wait before pressing again",
		"error.not_found":                "Not found",
		"error.unauthorized":             "Sign in required",
		"error.product_not_found":        "Product not found",
		"error.metadata_not_found":       "No additional information found",
		"error.metadata_unavailable":     "Movie information service unavailable",
		"error.promo_invalid":            "Invalid promo code",
		"error.cart_item_not_found":      "Item is not in the cart",
		"error.cart_load_failed":         "Failed to load the cart",
		"error.cart_update_failed":       "Failed to update the cart",
		"error.username_required":        "Username is required",
		"error.username_min_length":      "Username must be at least %d characters",
		"error.email_invalid":            "Enter a valid email",
		"error.password_required":        "Password is required",
		"error.password_min_length":      "Password must be at least %d characters",
		"error.password_require_upper":   "Password must contain an uppercase letter",
		"error.password_require_lower":   "Password must contain a lowercase letter",
		"error.password_require_number":  "Password must contain a digit",
		"error.password_require_special": "Password must contain a special character",
		"error.password_mismatch":        "Passwords do not match",
		"error.terms_required":           "You must accept the terms of use",
		"error.login_invalid":            "Invalid username or password",
		"error.register_failed":          "Registration failed",
		"error.logout_failed":            "Failed to sign out",
		"error.validation_failed":        "Please check the form fields",
		"cart.remote_sync_failed":        "Saved locally but not synchronized with the server",
		"cart.movie_id_unresolved":       "Could not resolve the movie for synchronization",
		"cart.remote_fetch_failed":       "Could not fetch the cart from the server, showing the local copy",
		"cart.storage_persist_failed":    "Could not save the cart locally",
		"metadata.awards_summary":        "%s wins, %s nominations",
		"message.register_success":       "Registration successful",
		"message.login_success":          "Signed in",
		"message.logout_success":         "Signed out",
		"message.item_added":             "Added to cart",
		"message.cart_cleared":           "Cart cleared",
		"message.promo_applied":          "Promo code applied",
		"message.promo_cleared":          "Promo code removed",
	},
}
