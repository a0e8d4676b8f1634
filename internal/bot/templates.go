package bot

const (
	replyAdded = `✅ **Слот добавлен!**

📅 **Дата:** %s
⏰ **Время:** %s

Всего слотов: %d`

	replyDuplicate   = "❌ Слот на %s в %s уже существует"
	replyParseFailed = "❌ Не удалось распознать дату и время в сообщении"
	replyNotAReply   = "❌ Используйте /add как ответ на сообщение с информацией о слоте"
	replyNoText      = "❌ Не удалось получить текст сообщения"

	helpText = "🎾 **Падла Бот - Справка**\n" +
		"\n" +
		"**Доступные команды:**\n" +
		"\n" +
		"🏓 `/ping` - Проверка на живость\n" +
		"📅 `/add` - Добавить слот в расписание\n" +
		"📋 `/list` - Показать запланированные слоты\n" +
		"❓ `/help` - Показать что умеет\n" +
		"\n" +
		"**Как добавить слот:**\n" +
		"1. Найдите сообщение с датой и временем слота\n" +
		"2. Ответьте на это сообщение командой `/add`\n" +
		"3. Бот автоматически распознает дату и время слота\n"
)
