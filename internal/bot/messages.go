package bot

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"reelgrab/internal/domain"
)

const (
	msgWelcome = "🎬 *Bem-vindo ao Bot de Download de Vídeos!*\n\n" +
		"📱 *Plataformas suportadas:*\n" +
		"• Instagram (Reels, Posts, IGTV)\n" +
		"• TikTok\n\n" +
		"📝 *Como usar:*\n" +
		"1. Copie o link do vídeo\n" +
		"2. Envie para mim\n" +
		"3. Aguarde o download\n\n" +
		"📈 *Comandos extras:*\n" +
		"• /trending — vídeos em alta\n" +
		"• /hashtag <tag> — buscar por hashtag\n" +
		"• /criador <usuário> — estatísticas de um criador\n" +
		"• /sons — sons em alta\n\n" +
		"⚠️ *Importante:*\n" +
		"• O vídeo deve ser público\n" +
		"• Links privados não funcionam\n\n" +
		"Envie um link para começar! 🚀"

	msgInvalidLink = "❌ *Link inválido!*\n\n" +
		"Por favor, envie um link válido do:\n" +
		"• Instagram (instagram.com)\n" +
		"• TikTok (tiktok.com)"

	msgProcessing        = "⏳ Processando seu vídeo...\n\nIsso pode levar alguns segundos."
	msgTryingAlternative = "⏳ Tentando método alternativo de download..."
	msgUploading         = "📤 Enviando vídeo..."

	msgVideoCaption = "✅ Aqui está seu vídeo! 🎥\n\n💡 Envie outro link para baixar mais vídeos."

	msgQueueFull = "⏳ Estou ocupado demais agora. Tente novamente em alguns instantes."

	msgLinkExpired = "Este link expirou. Envie o link do vídeo novamente."

	msgNoTrending = "😕 Não encontrei vídeos em alta agora. Tente novamente mais tarde."
	msgNoSounds   = "😕 Não encontrei sons em alta agora. Tente novamente mais tarde."

	msgUsageHashtag = "Uso: /hashtag <tag>\n\nExemplo: /hashtag dança\n\n" +
		"Envie várias tags para compará-las: /hashtag dança fitness humor"

	msgNoComparison = "😕 Não encontrei vídeos para essas hashtags. Tente outras."
	msgUsageCreator = "Uso: /criador <usuário>\n\nExemplo: /criador @usuario"
)

func formatDownloadError(failure string) string {
	return fmt.Sprintf(
		"❌ *Erro no download:*\n\n%s\n\n"+
			"💡 *Dicas:*\n"+
			"• Verifique se o vídeo é público\n"+
			"• Tente copiar o link novamente\n"+
			"• Certifique-se de que o vídeo ainda existe",
		failure,
	)
}

func formatSendError(detail string) string {
	return fmt.Sprintf(
		"❌ *Erro ao enviar o vídeo:*\n\n"+
			"O vídeo pode ser muito grande para o Telegram.\n"+
			"Tamanho máximo: 50 MB\n\n"+
			"Detalhes: %s",
		detail,
	)
}

func formatTrendingList(header string, videos []domain.TrendingVideo) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	for i, v := range videos {
		fmt.Fprintf(&b, "\n*%d.* %s\n", i+1, escapeMarkdown(v.Title))
		fmt.Fprintf(&b, "👤 %s\n", escapeMarkdown(v.Author))
		fmt.Fprintf(&b, "▶️ %s  ❤️ %s\n", humanize.Comma(v.Views), humanize.Comma(v.Likes))
	}
	b.WriteString("\n⬇️ Toque em um botão para baixar o vídeo.")
	return b.String()
}

func formatHashtagComparison(insights []domain.HashtagInsight) string {
	var sampled int
	for _, in := range insights {
		sampled += in.VideoCount
	}
	if sampled == 0 {
		return msgNoComparison
	}

	var b strings.Builder
	b.WriteString("📊 *Comparação de hashtags:*\n")
	for _, in := range insights {
		fmt.Fprintf(&b, "\n*#%s*\n", escapeMarkdown(in.Hashtag))
		fmt.Fprintf(&b, "🎬 %d vídeos  ▶️ %s views em média\n", in.VideoCount, humanize.Comma(in.AvgViews))
		fmt.Fprintf(&b, "🔥 Engajamento: %.1f%%\n", in.EngagementRate*100)
		if in.IsContentGap {
			b.WriteString("💎 Oportunidade: alto engajamento, pouca concorrência\n")
		}
	}
	return b.String()
}

func formatNoResults(hashtag string) string {
	return fmt.Sprintf("😕 Nenhum vídeo encontrado para *#%s*. Tente outra hashtag.", escapeMarkdown(hashtag))
}

func formatCreatorStats(stats domain.CreatorStats) string {
	if stats.PostCount == 0 {
		return fmt.Sprintf("😕 Não encontrei posts públicos de *@%s*.", escapeMarkdown(stats.Username))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Estatísticas de @%s*\n\n", escapeMarkdown(stats.Username))
	fmt.Fprintf(&b, "🎬 Posts analisados: %d\n", stats.PostCount)
	fmt.Fprintf(&b, "▶️ Views totais: %s\n", humanize.Comma(stats.TotalViews))
	fmt.Fprintf(&b, "❤️ Likes totais: %s\n", humanize.Comma(stats.TotalLikes))
	fmt.Fprintf(&b, "📈 Média de views: %s\n", humanize.Comma(stats.AvgViews))
	fmt.Fprintf(&b, "📈 Média de likes: %s\n", humanize.Comma(stats.AvgLikes))
	fmt.Fprintf(&b, "🔥 Engajamento: %.1f%%\n", stats.EngagementRate*100)
	if stats.TopVideo != nil {
		fmt.Fprintf(&b, "\n🏆 *Post mais visto:*\n%s\n▶️ %s views",
			escapeMarkdown(stats.TopVideo.Title), humanize.Comma(stats.TopVideo.Views))
	}
	return b.String()
}

func formatSoundsList(sounds []domain.TrendingSound) string {
	var b strings.Builder
	b.WriteString("🎵 *Sons em alta:*\n")
	for i, s := range sounds {
		fmt.Fprintf(&b, "\n*%d.* %s — %s\n", i+1, escapeMarkdown(s.Title), escapeMarkdown(s.Author))
		fmt.Fprintf(&b, "🔁 Usado em %d vídeos em alta\n", s.UseCount)
	}
	return b.String()
}

// escapeMarkdown neutralizes the legacy-Markdown control characters that
// show up in video titles and author names.
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return replacer.Replace(s)
}
